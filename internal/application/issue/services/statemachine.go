package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/shared/authorization"
	"github.com/civiclens/civiclens/internal/shared/db"
	apperrors "github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

// TransitionRequest moves one issue to To. A nil Actor is the system itself.
type TransitionRequest struct {
	IssueID    string
	To         vo.IssueStatus
	Actor      *authorization.Actor
	Action     ledger.Action
	Metadata   map[string]any
	AIScore    *float64
	AfterImage *string
}

type TransitionResult struct {
	Issue      *issue.Issue
	PrevStatus vo.IssueStatus
}

type MergeResult struct {
	IssueID     string
	Status      vo.IssueStatus
	ReportCount int
}

// StateMachine is the only writer of issue status. Every change is paired with
// a ledger entry inside the same transaction.
type StateMachine struct {
	issueRepo  issue.Repository
	ledgerRepo ledger.Repository
	txm        db.Transactor
	metrics    *metrics.Metrics
	clock      Clock
	logger     logger.Interface
}

func NewStateMachine(
	issueRepo issue.Repository,
	ledgerRepo ledger.Repository,
	txm db.Transactor,
	m *metrics.Metrics,
	clock Clock,
	log logger.Interface,
) *StateMachine {
	return &StateMachine{
		issueRepo:  issueRepo,
		ledgerRepo: ledgerRepo,
		txm:        txm,
		metrics:    m,
		clock:      clock,
		logger:     log.Named("state_machine"),
	}
}

// Create persists a new issue together with its ISSUE_CREATED entry. Unlike
// transitions, a failed ledger write rolls the whole creation back.
func (sm *StateMachine) Create(ctx context.Context, iss *issue.Issue, metadata map[string]any) error {
	return sm.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := sm.issueRepo.Create(ctx, iss); err != nil {
			return fmt.Errorf("failed to create issue: %w", err)
		}

		reporter := iss.ReporterID()
		entry, err := ledger.NewEntry(iss.ID(), ledger.ActionIssueCreated, nil, iss.Status(), &reporter, metadata, iss.CreatedAt())
		if err != nil {
			return fmt.Errorf("failed to build creation entry: %w", err)
		}
		if err := sm.ledgerRepo.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append creation entry: %w", err)
		}
		return nil
	})
}

// Transition applies req. The check against the persisted status happens twice:
// once in the domain before writing and once as a compare-and-swap in SQL, so a
// concurrent writer surfaces as an invalid transition rather than a lost update.
func (sm *StateMachine) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if req.Actor != nil && !req.Actor.IsOfficer() {
		return nil, apperrors.NewForbiddenError("only officers may change issue status")
	}
	if !req.To.IsValid() {
		return nil, apperrors.NewValidationError("invalid target status", string(req.To))
	}
	action := req.Action
	if action == "" {
		action = ledger.ActionStatusChange
	}

	var result *TransitionResult
	err := sm.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		iss, err := sm.load(ctx, req.IssueID)
		if err != nil {
			return err
		}

		prev := iss.Status()
		now := sm.clock.Now()
		change := issue.TransitionChange{AIScore: req.AIScore, AfterImage: req.AfterImage}
		if err := iss.ApplyTransition(req.To, change, now); err != nil {
			if errors.Is(err, issue.ErrInvalidTransition) {
				return apperrors.NewInvalidTransitionError(prev.String(), req.To.String())
			}
			return apperrors.NewValidationError(err.Error())
		}

		if err := sm.issueRepo.CompareAndSwapStatus(ctx, iss, prev); err != nil {
			if errors.Is(err, issue.ErrStatusChanged) {
				current, loadErr := sm.load(ctx, req.IssueID)
				if loadErr != nil {
					return loadErr
				}
				return apperrors.NewInvalidTransitionError(current.Status().String(), req.To.String())
			}
			if errors.Is(err, issue.ErrNotFound) {
				return apperrors.NewNotFoundError("issue not found", req.IssueID)
			}
			return fmt.Errorf("failed to update issue status: %w", err)
		}

		sm.appendOrWarn(ctx, iss.ID(), action, &prev, req.To, req.Actor.ID(), req.Metadata, now)
		result = &TransitionResult{Issue: iss, PrevStatus: prev}
		return nil
	})
	if err != nil {
		return nil, sm.wrap(err, "failed to transition issue")
	}

	sm.logger.Infow("issue status changed",
		"issue_id", req.IssueID,
		"from", result.PrevStatus,
		"to", req.To,
		"action", action,
	)
	return result, nil
}

// MergeReport folds another citizen's report into an existing issue. It is not
// a transition: the status stays put and the entry records prev == new. The
// increment takes the row lock before the status is read, and only a pending
// issue accepts the report; anything else returns issue.ErrNotMergeable with
// the increment rolled back.
func (sm *StateMachine) MergeReport(ctx context.Context, issueID, contributorID, image string) (*MergeResult, error) {
	var result *MergeResult
	err := sm.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		now := sm.clock.Now()
		count, err := sm.issueRepo.IncrementReportCount(ctx, issueID, now)
		if err != nil {
			if errors.Is(err, issue.ErrNotFound) {
				return apperrors.NewNotFoundError("issue not found", issueID)
			}
			return fmt.Errorf("failed to increment report count: %w", err)
		}

		iss, err := sm.load(ctx, issueID)
		if err != nil {
			return err
		}
		status := iss.Status()
		if status != vo.StatusPending {
			return fmt.Errorf("merge into %s issue %s: %w", status, issueID, issue.ErrNotMergeable)
		}

		metadata := map[string]any{
			"merged_report":  true,
			"contributor_id": contributorID,
			"image":          image,
			"report_count":   count,
		}
		contributor := contributorID
		sm.appendOrWarn(ctx, issueID, ledger.ActionEvidenceUploaded, &status, status, &contributor, metadata, now)

		result = &MergeResult{IssueID: issueID, Status: status, ReportCount: count}
		return nil
	})
	if errors.Is(err, issue.ErrNotMergeable) {
		sm.logger.Infow("merge target no longer pending", "issue_id", issueID, "error", err)
		return nil, err
	}
	if err != nil {
		return nil, sm.wrap(err, "failed to merge report")
	}

	sm.logger.Infow("report merged into existing issue",
		"issue_id", issueID,
		"contributor_id", contributorID,
		"report_count", result.ReportCount,
	)
	return result, nil
}

// appendOrWarn writes a ledger entry after the status row is already updated.
// A failure here leaves the status change committed; it is logged and counted.
func (sm *StateMachine) appendOrWarn(
	ctx context.Context,
	issueID string,
	action ledger.Action,
	prev *vo.IssueStatus,
	next vo.IssueStatus,
	actorID *string,
	metadata map[string]any,
	at time.Time,
) {
	entry, err := ledger.NewEntry(issueID, action, prev, next, actorID, metadata, at)
	if err == nil {
		err = sm.ledgerRepo.Append(ctx, entry)
	}
	if err == nil {
		return
	}

	sm.metrics.IncConsistencyWarning()
	sm.logger.Warnw("ledger consistency warning: status committed without ledger entry",
		"issue_id", issueID,
		"action", action,
		"new_status", next,
		"error", err,
	)
}

func (sm *StateMachine) load(ctx context.Context, id string) (*issue.Issue, error) {
	iss, err := sm.issueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, issue.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("issue not found", id)
		}
		return nil, fmt.Errorf("failed to load issue: %w", err)
	}
	return iss, nil
}

func (sm *StateMachine) wrap(err error, message string) error {
	if apperrors.IsAppError(err) {
		return err
	}
	sm.logger.Errorw(message, "error", err)
	return apperrors.NewInternalError(message)
}
