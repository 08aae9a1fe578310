package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civiclens/civiclens/internal/application/issue/services"
	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/domain/reputation"
	"github.com/civiclens/civiclens/internal/infrastructure/geocoding"
	"github.com/civiclens/civiclens/internal/infrastructure/ratelimit"
	"github.com/civiclens/civiclens/internal/shared/authorization"
	"github.com/civiclens/civiclens/internal/shared/geo"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

var (
	officer = authorization.NewActor("officer-1", authorization.RoleOfficer)
	citizen = authorization.NewActor("citizen-1", authorization.RoleCitizen)
)

type mockIssueRepository struct {
	CreateFunc               func(ctx context.Context, iss *issue.Issue) error
	GetByIDFunc              func(ctx context.Context, id string) (*issue.Issue, error)
	CompareAndSwapStatusFunc func(ctx context.Context, iss *issue.Issue, expected vo.IssueStatus) error
	IncrementReportCountFunc func(ctx context.Context, id string, now time.Time) (int, error)
	FindNearbyPendingFunc    func(ctx context.Context, box geo.BoundingBox) ([]issue.Candidate, error)
	ListFunc                 func(ctx context.Context, filter issue.Filter) ([]*issue.Issue, int64, error)
	ListStaleIDsFunc         func(ctx context.Context, statuses []vo.IssueStatus, updatedBefore time.Time, limit int) ([]string, error)
	CountByStatusFunc        func(ctx context.Context) (map[vo.IssueStatus]int64, error)
}

func (m *mockIssueRepository) Create(ctx context.Context, iss *issue.Issue) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, iss)
	}
	return nil
}

func (m *mockIssueRepository) GetByID(ctx context.Context, id string) (*issue.Issue, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, issue.ErrNotFound
}

func (m *mockIssueRepository) CompareAndSwapStatus(ctx context.Context, iss *issue.Issue, expected vo.IssueStatus) error {
	if m.CompareAndSwapStatusFunc != nil {
		return m.CompareAndSwapStatusFunc(ctx, iss, expected)
	}
	return nil
}

func (m *mockIssueRepository) IncrementReportCount(ctx context.Context, id string, now time.Time) (int, error) {
	if m.IncrementReportCountFunc != nil {
		return m.IncrementReportCountFunc(ctx, id, now)
	}
	return 0, nil
}

func (m *mockIssueRepository) FindNearbyPending(ctx context.Context, box geo.BoundingBox) ([]issue.Candidate, error) {
	if m.FindNearbyPendingFunc != nil {
		return m.FindNearbyPendingFunc(ctx, box)
	}
	return nil, nil
}

func (m *mockIssueRepository) List(ctx context.Context, filter issue.Filter) ([]*issue.Issue, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockIssueRepository) ListStaleIDs(ctx context.Context, statuses []vo.IssueStatus, updatedBefore time.Time, limit int) ([]string, error) {
	if m.ListStaleIDsFunc != nil {
		return m.ListStaleIDsFunc(ctx, statuses, updatedBefore, limit)
	}
	return nil, nil
}

func (m *mockIssueRepository) CountByStatus(ctx context.Context) (map[vo.IssueStatus]int64, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx)
	}
	return map[vo.IssueStatus]int64{}, nil
}

type mockLedgerRepository struct {
	AppendFunc      func(ctx context.Context, entry *ledger.Entry) error
	ListByIssueFunc func(ctx context.Context, issueID string) ([]*ledger.Entry, error)
}

func (m *mockLedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	return nil
}

func (m *mockLedgerRepository) ListByIssue(ctx context.Context, issueID string) ([]*ledger.Entry, error) {
	if m.ListByIssueFunc != nil {
		return m.ListByIssueFunc(ctx, issueID)
	}
	return nil, nil
}

type mockCreditRepository struct {
	AwardFunc       func(ctx context.Context, g reputation.Grant) (bool, error)
	GetBalanceFunc  func(ctx context.Context, userID string) (int64, error)
	TopBalancesFunc func(ctx context.Context, limit int) ([]reputation.Balance, error)
}

func (m *mockCreditRepository) Award(ctx context.Context, g reputation.Grant) (bool, error) {
	if m.AwardFunc != nil {
		return m.AwardFunc(ctx, g)
	}
	return true, nil
}

func (m *mockCreditRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockCreditRepository) TopBalances(ctx context.Context, limit int) ([]reputation.Balance, error) {
	if m.TopBalancesFunc != nil {
		return m.TopBalancesFunc(ctx, limit)
	}
	return nil, nil
}

type mockTransitioner struct {
	CreateFunc      func(ctx context.Context, iss *issue.Issue, metadata map[string]any) error
	TransitionFunc  func(ctx context.Context, req services.TransitionRequest) (*services.TransitionResult, error)
	MergeReportFunc func(ctx context.Context, issueID, contributorID, image string) (*services.MergeResult, error)

	created     []*issue.Issue
	transitions []services.TransitionRequest
}

func (m *mockTransitioner) Create(ctx context.Context, iss *issue.Issue, metadata map[string]any) error {
	m.created = append(m.created, iss)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, iss, metadata)
	}
	return nil
}

func (m *mockTransitioner) Transition(ctx context.Context, req services.TransitionRequest) (*services.TransitionResult, error) {
	m.transitions = append(m.transitions, req)
	if m.TransitionFunc != nil {
		return m.TransitionFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockTransitioner) MergeReport(ctx context.Context, issueID, contributorID, image string) (*services.MergeResult, error) {
	if m.MergeReportFunc != nil {
		return m.MergeReportFunc(ctx, issueID, contributorID, image)
	}
	return &services.MergeResult{IssueID: issueID, Status: vo.StatusPending, ReportCount: 2}, nil
}

type mockProvenance struct {
	result services.ProvenanceResult
	calls  int
}

func (m *mockProvenance) Verify(image []byte, claimedLat, claimedLng float64) services.ProvenanceResult {
	m.calls++
	return m.result
}

type mockDuplicateFinder struct {
	result  services.DuplicateResult
	queries []services.DuplicateQuery
}

func (m *mockDuplicateFinder) Find(ctx context.Context, q services.DuplicateQuery) services.DuplicateResult {
	m.queries = append(m.queries, q)
	return m.result
}

type mockBlobWriter struct {
	PutFunc func(ctx context.Context, key string, data []byte) (string, error)
	keys    []string
}

func (m *mockBlobWriter) Put(ctx context.Context, key string, data []byte) (string, error) {
	m.keys = append(m.keys, key)
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, data)
	}
	return "/media/" + key, nil
}

type mockGeocoder struct {
	address geocoding.Address
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) geocoding.Address {
	return m.address
}

type mockEnqueuer struct {
	EnqueueFunc func(ctx context.Context, issueID string) (bool, error)
	ids         []string
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, issueID string) (bool, error) {
	m.ids = append(m.ids, issueID)
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, issueID)
	}
	return true, nil
}

type mockTriager struct {
	TriageFunc func(ctx context.Context, issueID string) (*services.TriageOutcome, error)
}

func (m *mockTriager) Triage(ctx context.Context, issueID string) (*services.TriageOutcome, error) {
	if m.TriageFunc != nil {
		return m.TriageFunc(ctx, issueID)
	}
	return &services.TriageOutcome{IssueID: issueID, Status: vo.StatusValidated}, nil
}

type mockResolutionChecker struct {
	VerifyFunc func(ctx context.Context, cmd services.ResolutionCommand) (*services.ResolutionResult, error)
	commands   []services.ResolutionCommand
}

func (m *mockResolutionChecker) Verify(ctx context.Context, cmd services.ResolutionCommand) (*services.ResolutionResult, error) {
	m.commands = append(m.commands, cmd)
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, cmd)
	}
	return &services.ResolutionResult{Outcome: services.OutcomeRejected}, nil
}

type mockRateLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit ratelimit.Limit) (bool, error)
	keys      []string
}

func (m *mockRateLimiter) Allow(ctx context.Context, key string, limit ratelimit.Limit) (bool, error) {
	m.keys = append(m.keys, key)
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit)
	}
	return true, nil
}

func (m *mockRateLimiter) Reset(ctx context.Context, key string) error {
	return nil
}

func newTestLogger() logger.Interface {
	return logger.NewNopLogger()
}

func newTestIssue(t *testing.T, status vo.IssueStatus) *issue.Issue {
	t.Helper()
	loc, err := vo.NewCoordinates(28.6139, 77.2090)
	require.NoError(t, err)
	iss, err := issue.ReconstructIssue(issue.ReconstructParams{
		ID:          "issue-1",
		ReporterID:  "citizen-1",
		Category:    vo.CategoryRoads,
		Title:       "Pothole near India Gate",
		Location:    loc,
		Status:      status,
		BeforeImage: "/media/citizen-1/1.jpg",
		ReportCount: 1,
		CreatedAt:   testNow.Add(-time.Hour),
		UpdatedAt:   testNow.Add(-time.Hour),
	})
	require.NoError(t, err)
	return iss
}
