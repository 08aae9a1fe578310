package usecases

import (
	"context"

	"github.com/civiclens/civiclens/internal/application/issue/dto"
	"github.com/civiclens/civiclens/internal/application/issue/services"
	"github.com/civiclens/civiclens/internal/domain/issue"
	"github.com/civiclens/civiclens/internal/infrastructure/geocoding"
)

type CreateIssueExecutor interface {
	Execute(ctx context.Context, cmd CreateIssueCommand) (*CreateIssueResult, error)
}

type CheckDuplicateExecutor interface {
	Execute(ctx context.Context, cmd CheckDuplicateCommand) (*CheckDuplicateResult, error)
}

type GetIssueExecutor interface {
	Execute(ctx context.Context, query GetIssueQuery) (*dto.IssueDetailDTO, error)
}

type ListIssuesExecutor interface {
	Execute(ctx context.Context, query ListIssuesQuery) (*ListIssuesResult, error)
}

type ChangeStatusExecutor interface {
	Execute(ctx context.Context, cmd ChangeStatusCommand) (*ChangeStatusResult, error)
}

type TriggerTriageExecutor interface {
	Execute(ctx context.Context, cmd TriggerTriageCommand) (*TriggerTriageResult, error)
}

type SubmitResolutionExecutor interface {
	Execute(ctx context.Context, cmd SubmitResolutionCommand) (*SubmitResolutionResult, error)
}

type GetDashboardExecutor interface {
	Execute(ctx context.Context) (*dto.DashboardDTO, error)
}

// TriageEnqueuer hands an issue to the triage workers. It reports false when a
// job for the issue is already queued or running.
type TriageEnqueuer interface {
	Enqueue(ctx context.Context, issueID string) (bool, error)
}

// BlobWriter stores an upload and returns its public reference.
type BlobWriter interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) geocoding.Address
}

// ProvenanceChecker and DuplicateFinder are satisfied by the pipeline services.
type ProvenanceChecker interface {
	Verify(image []byte, claimedLat, claimedLng float64) services.ProvenanceResult
}

type DuplicateFinder interface {
	Find(ctx context.Context, q services.DuplicateQuery) services.DuplicateResult
}

type IssueTransitioner interface {
	Create(ctx context.Context, iss *issue.Issue, metadata map[string]any) error
	Transition(ctx context.Context, req services.TransitionRequest) (*services.TransitionResult, error)
	MergeReport(ctx context.Context, issueID, contributorID, image string) (*services.MergeResult, error)
}

type Triager interface {
	Triage(ctx context.Context, issueID string) (*services.TriageOutcome, error)
}

type ResolutionChecker interface {
	Verify(ctx context.Context, cmd services.ResolutionCommand) (*services.ResolutionResult, error)
}
