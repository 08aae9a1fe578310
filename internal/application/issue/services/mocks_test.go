package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/domain/reputation"
	"github.com/civiclens/civiclens/internal/infrastructure/exif"
	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/infrastructure/oracle"
	"github.com/civiclens/civiclens/internal/infrastructure/storage"
	"github.com/civiclens/civiclens/internal/shared/geo"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// memIssueRepository keeps copies so callers cannot mutate stored state.
type memIssueRepository struct {
	mu     sync.Mutex
	issues map[string]issue.Issue

	FindNearbyPendingFunc func(ctx context.Context, box geo.BoundingBox) ([]issue.Candidate, error)
	CompareAndSwapFunc    func(ctx context.Context, iss *issue.Issue, expected vo.IssueStatus) error
}

func newMemIssueRepository(issues ...*issue.Issue) *memIssueRepository {
	r := &memIssueRepository{issues: make(map[string]issue.Issue)}
	for _, iss := range issues {
		r.issues[iss.ID()] = *iss
	}
	return r
}

func (r *memIssueRepository) Create(ctx context.Context, iss *issue.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues[iss.ID()] = *iss
	return nil
}

func (r *memIssueRepository) GetByID(ctx context.Context, id string) (*issue.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.issues[id]
	if !ok {
		return nil, issue.ErrNotFound
	}
	cp := stored
	return &cp, nil
}

func (r *memIssueRepository) CompareAndSwapStatus(ctx context.Context, iss *issue.Issue, expected vo.IssueStatus) error {
	if r.CompareAndSwapFunc != nil {
		if err := r.CompareAndSwapFunc(ctx, iss, expected); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.issues[iss.ID()]
	if !ok {
		return issue.ErrNotFound
	}
	if stored.Status() != expected {
		return issue.ErrStatusChanged
	}
	r.issues[iss.ID()] = *iss
	return nil
}

func (r *memIssueRepository) IncrementReportCount(ctx context.Context, id string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.issues[id]
	if !ok {
		return 0, issue.ErrNotFound
	}
	stored.RecordMergedReport(now)
	r.issues[id] = stored
	return stored.ReportCount(), nil
}

func (r *memIssueRepository) FindNearbyPending(ctx context.Context, box geo.BoundingBox) ([]issue.Candidate, error) {
	if r.FindNearbyPendingFunc != nil {
		return r.FindNearbyPendingFunc(ctx, box)
	}
	return nil, nil
}

func (r *memIssueRepository) List(ctx context.Context, filter issue.Filter) ([]*issue.Issue, int64, error) {
	return nil, 0, nil
}

func (r *memIssueRepository) ListStaleIDs(ctx context.Context, statuses []vo.IssueStatus, updatedBefore time.Time, limit int) ([]string, error) {
	return nil, nil
}

func (r *memIssueRepository) CountByStatus(ctx context.Context) (map[vo.IssueStatus]int64, error) {
	return nil, nil
}

// set forces a stored status, as if another writer got there first.
func (r *memIssueRepository) set(t *testing.T, id string, status vo.IssueStatus) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.issues[id]
	moved, err := issue.ReconstructIssue(issue.ReconstructParams{
		ID:          stored.ID(),
		ReporterID:  stored.ReporterID(),
		Category:    stored.Category(),
		Title:       stored.Title(),
		Location:    stored.Location(),
		Status:      status,
		BeforeImage: stored.BeforeImage(),
		ReportCount: stored.ReportCount(),
		CreatedAt:   stored.CreatedAt(),
		UpdatedAt:   stored.UpdatedAt(),
	})
	require.NoError(t, err)
	r.issues[id] = *moved
}

type memLedgerRepository struct {
	mu      sync.Mutex
	entries []*ledger.Entry
	nextID  uint64

	AppendFunc func(ctx context.Context, entry *ledger.Entry) error
}

func (r *memLedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	if r.AppendFunc != nil {
		if err := r.AppendFunc(ctx, entry); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if err := entry.AssignID(r.nextID); err != nil {
		return err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memLedgerRepository) ListByIssue(ctx context.Context, issueID string) ([]*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ledger.Entry
	for _, e := range r.entries {
		if e.IssueID() == issueID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memCreditRepository struct {
	mu       sync.Mutex
	grants   map[string]reputation.Grant
	balances map[string]int64

	AwardFunc func(ctx context.Context, g reputation.Grant) (bool, error)
}

func newMemCreditRepository() *memCreditRepository {
	return &memCreditRepository{
		grants:   make(map[string]reputation.Grant),
		balances: make(map[string]int64),
	}
}

func (r *memCreditRepository) Award(ctx context.Context, g reputation.Grant) (bool, error) {
	if r.AwardFunc != nil {
		return r.AwardFunc(ctx, g)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := g.IssueID + "/" + g.Reason
	if _, ok := r.grants[key]; ok {
		return false, nil
	}
	r.grants[key] = g
	r.balances[g.UserID] += g.Amount
	return true, nil
}

func (r *memCreditRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[userID], nil
}

func (r *memCreditRepository) TopBalances(ctx context.Context, limit int) ([]reputation.Balance, error) {
	return nil, nil
}

// passthroughTransactor runs fn without a real transaction.
type passthroughTransactor struct{}

func (passthroughTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockFetcher struct {
	FetchFunc func(ctx context.Context, ref string) (*storage.Image, error)
	calls     []string
}

func (m *mockFetcher) Fetch(ctx context.Context, ref string) (*storage.Image, error) {
	m.calls = append(m.calls, ref)
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, ref)
	}
	return &storage.Image{MIMEType: "image/jpeg", Data: []byte("jpeg:" + ref)}, nil
}

type mockOracle struct {
	GenerateFunc func(ctx context.Context, req oracle.Request) (string, error)
	requests     []oracle.Request
}

func (m *mockOracle) Generate(ctx context.Context, req oracle.Request) (string, error) {
	m.requests = append(m.requests, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "NO", nil
}

func (m *mockOracle) Model() string {
	return "gemini-test"
}

type mockExtractor struct {
	meta *exif.Metadata
	err  error
}

func (m *mockExtractor) Extract(data []byte) (*exif.Metadata, error) {
	return m.meta, m.err
}

func newTestLogger() logger.Interface {
	return logger.NewNopLogger()
}

func newPendingIssue(t *testing.T, opts ...func(*issue.NewIssueParams)) *issue.Issue {
	t.Helper()
	loc, err := vo.NewCoordinates(28.6139, 77.2090)
	require.NoError(t, err)
	params := issue.NewIssueParams{
		ReporterID:  "11111111-1111-4111-8111-111111111111",
		Category:    vo.CategoryRoads,
		Title:       "Pothole on Janpath",
		Location:    loc,
		BeforeImage: "http://localhost:8080/media/before.jpg",
	}
	for _, opt := range opts {
		opt(&params)
	}
	iss, err := issue.NewIssue(params, fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	return iss
}

func withoutImage(p *issue.NewIssueParams) {
	p.BeforeImage = ""
}

type fixture struct {
	issues  *memIssueRepository
	ledger  *memLedgerRepository
	credits *memCreditRepository
	fetcher *mockFetcher
	oracle  *mockOracle
	sm      *StateMachine
	gateway *OracleGateway
}

func newFixture(issues ...*issue.Issue) *fixture {
	f := &fixture{
		issues:  newMemIssueRepository(issues...),
		ledger:  &memLedgerRepository{},
		credits: newMemCreditRepository(),
		fetcher: &mockFetcher{},
		oracle:  &mockOracle{},
	}
	f.sm = NewStateMachine(f.issues, f.ledger, passthroughTransactor{}, nil, fixedClock, newTestLogger())
	f.gateway = NewOracleGateway(f.oracle, 0, nil)
	return f
}

// counterValue sums a counter family across its label values, or only the
// series whose labels include every pair in match.
func counterValue(t *testing.T, m *metrics.Metrics, name string, match ...string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, series := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range series.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			ok := true
			for i := 0; i+1 < len(match); i += 2 {
				if labels[match[i]] != match[i+1] {
					ok = false
				}
			}
			if ok {
				total += series.GetCounter().GetValue()
			}
		}
	}
	return total
}
