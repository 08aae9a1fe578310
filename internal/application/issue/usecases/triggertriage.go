package usecases

import (
	"context"
	stderrors "errors"

	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/shared/authorization"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

type TriggerTriageCommand struct {
	IssueID string
	Actor   *authorization.Actor
	// Wait runs the pipeline in the request instead of handing it to the workers.
	Wait bool
}

type TriggerTriageResult struct {
	IssueID      string
	Status       string
	Queued       bool
	Skipped      bool
	Score        *float64
	Summary      string
	Severity     string
	ManualReview bool
}

type TriggerTriageUseCase struct {
	issueRepo issue.Repository
	queue     TriageEnqueuer
	triager   Triager
	logger    logger.Interface
}

func NewTriggerTriageUseCase(
	issueRepo issue.Repository,
	queue TriageEnqueuer,
	triager Triager,
	logger logger.Interface,
) *TriggerTriageUseCase {
	return &TriggerTriageUseCase{
		issueRepo: issueRepo,
		queue:     queue,
		triager:   triager,
		logger:    logger,
	}
}

// Execute is idempotent: an issue already past ai_analyzing is reported as
// skipped and nothing is queued.
func (uc *TriggerTriageUseCase) Execute(ctx context.Context, cmd TriggerTriageCommand) (*TriggerTriageResult, error) {
	uc.logger.Infow("executing trigger triage use case", "issue_id", cmd.IssueID, "wait", cmd.Wait)

	if err := uc.validateCommand(cmd); err != nil {
		return nil, err
	}

	iss, err := uc.issueRepo.GetByID(ctx, cmd.IssueID)
	if err != nil {
		if stderrors.Is(err, issue.ErrNotFound) {
			return nil, errors.NewNotFoundError("issue not found", cmd.IssueID)
		}
		uc.logger.Errorw("failed to get issue", "issue_id", cmd.IssueID, "error", err)
		return nil, errors.NewInternalError("failed to get issue")
	}

	if iss.Status() != vo.StatusPending && iss.Status() != vo.StatusAIAnalyzing {
		return &TriggerTriageResult{
			IssueID: iss.ID(),
			Status:  iss.Status().String(),
			Skipped: true,
			Score:   iss.AIScore(),
		}, nil
	}

	if cmd.Wait && uc.triager != nil {
		out, err := uc.triager.Triage(ctx, cmd.IssueID)
		if err != nil {
			uc.logger.Errorw("inline triage failed", "issue_id", cmd.IssueID, "error", err)
			return nil, err
		}
		score := out.Score
		result := &TriggerTriageResult{
			IssueID:      out.IssueID,
			Status:       out.Status.String(),
			Skipped:      out.Skipped,
			Summary:      out.Summary,
			Severity:     out.Severity,
			ManualReview: out.ManualReview,
		}
		if !out.Skipped {
			result.Score = &score
		}
		return result, nil
	}

	queued, err := uc.queue.Enqueue(ctx, cmd.IssueID)
	if err != nil {
		uc.logger.Errorw("failed to enqueue triage", "issue_id", cmd.IssueID, "error", err)
		return nil, errors.NewUnavailableError("triage queue unavailable")
	}

	uc.logger.Infow("triage requested", "issue_id", cmd.IssueID, "queued", queued)

	return &TriggerTriageResult{
		IssueID: iss.ID(),
		Status:  iss.Status().String(),
		Queued:  queued,
	}, nil
}

func (uc *TriggerTriageUseCase) validateCommand(cmd TriggerTriageCommand) error {
	if cmd.Actor == nil {
		return errors.NewUnauthorizedError("authentication required")
	}
	if !cmd.Actor.IsOfficer() {
		return errors.NewForbiddenError("only officers may trigger triage")
	}
	if cmd.IssueID == "" {
		return errors.NewValidationError("issue ID is required")
	}
	return nil
}
