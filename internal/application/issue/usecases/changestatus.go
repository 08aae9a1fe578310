package usecases

import (
	"context"
	"strings"

	"github.com/civiclens/civiclens/internal/application/issue/dto"
	"github.com/civiclens/civiclens/internal/application/issue/services"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/shared/authorization"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
	"github.com/civiclens/civiclens/internal/shared/utils"
)

type ChangeStatusCommand struct {
	IssueID   string
	NewStatus string
	Reason    string
	Actor     *authorization.Actor
}

type ChangeStatusResult struct {
	Issue     *dto.IssueDTO
	OldStatus string
	NewStatus string
	UpdatedAt string
}

// ChangeStatusUseCase is the officer's manual status override. It cannot
// resolve an issue or move it into a status owned by the triage pipeline.
type ChangeStatusUseCase struct {
	stateMachine IssueTransitioner
	logger       logger.Interface
}

func NewChangeStatusUseCase(
	stateMachine IssueTransitioner,
	logger logger.Interface,
) *ChangeStatusUseCase {
	return &ChangeStatusUseCase{
		stateMachine: stateMachine,
		logger:       logger,
	}
}

func (uc *ChangeStatusUseCase) Execute(ctx context.Context, cmd ChangeStatusCommand) (*ChangeStatusResult, error) {
	uc.logger.Infow("executing change status use case", "issue_id", cmd.IssueID, "new_status", cmd.NewStatus)

	cmd.Reason = utils.SanitizeText(cmd.Reason)

	status, err := uc.validateCommand(cmd)
	if err != nil {
		uc.logger.Warnw("invalid change status command", "issue_id", cmd.IssueID, "error", err)
		return nil, err
	}

	res, err := uc.stateMachine.Transition(ctx, services.TransitionRequest{
		IssueID:  cmd.IssueID,
		To:       status,
		Actor:    cmd.Actor,
		Action:   ledger.ActionStatusChange,
		Metadata: map[string]any{"reason": cmd.Reason},
	})
	if err != nil {
		uc.logger.Warnw("failed to change issue status", "issue_id", cmd.IssueID, "error", err)
		return nil, err
	}

	uc.logger.Infow("issue status changed successfully",
		"issue_id", cmd.IssueID,
		"old_status", res.PrevStatus,
		"new_status", status,
	)

	out := dto.ToIssueDTO(res.Issue)
	return &ChangeStatusResult{
		Issue:     out,
		OldStatus: res.PrevStatus.String(),
		NewStatus: out.Status,
		UpdatedAt: out.UpdatedAt,
	}, nil
}

func (uc *ChangeStatusUseCase) validateCommand(cmd ChangeStatusCommand) (vo.IssueStatus, error) {
	if cmd.Actor == nil {
		return "", errors.NewUnauthorizedError("authentication required")
	}
	if !cmd.Actor.IsOfficer() {
		return "", errors.NewForbiddenError("only officers may change issue status")
	}
	if cmd.IssueID == "" {
		return "", errors.NewValidationError("issue ID is required")
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		return "", errors.NewValidationError("reason is required")
	}

	status, err := vo.NewIssueStatus(cmd.NewStatus)
	if err != nil {
		return "", errors.NewValidationError(err.Error())
	}
	if status == vo.StatusResolved {
		return "", errors.NewValidationError("resolved requires a verified resolution photo")
	}
	if status.IsSystemOnly() {
		return "", errors.NewValidationError("status " + status.String() + " is set by AI triage only")
	}
	return status, nil
}
