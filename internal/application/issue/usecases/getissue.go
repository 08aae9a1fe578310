package usecases

import (
	"context"
	stderrors "errors"

	"github.com/civiclens/civiclens/internal/application/issue/dto"
	"github.com/civiclens/civiclens/internal/domain/issue"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

type GetIssueQuery struct {
	IssueID string
}

type GetIssueUseCase struct {
	issueRepo  issue.Repository
	ledgerRepo ledger.Repository
	metrics    *metrics.Metrics
	logger     logger.Interface
}

func NewGetIssueUseCase(
	issueRepo issue.Repository,
	ledgerRepo ledger.Repository,
	m *metrics.Metrics,
	logger logger.Interface,
) *GetIssueUseCase {
	return &GetIssueUseCase{
		issueRepo:  issueRepo,
		ledgerRepo: ledgerRepo,
		metrics:    m,
		logger:     logger,
	}
}

// Execute returns the issue with its full audit trail in ledger order.
func (uc *GetIssueUseCase) Execute(ctx context.Context, query GetIssueQuery) (*dto.IssueDetailDTO, error) {
	if query.IssueID == "" {
		return nil, errors.NewValidationError("issue ID is required")
	}

	iss, err := uc.issueRepo.GetByID(ctx, query.IssueID)
	if err != nil {
		if stderrors.Is(err, issue.ErrNotFound) {
			return nil, errors.NewNotFoundError("issue not found", query.IssueID)
		}
		uc.logger.Errorw("failed to get issue", "issue_id", query.IssueID, "error", err)
		return nil, errors.NewInternalError("failed to get issue")
	}

	entries, err := uc.ledgerRepo.ListByIssue(ctx, query.IssueID)
	if err != nil {
		uc.logger.Errorw("failed to list audit trail", "issue_id", query.IssueID, "error", err)
		return nil, errors.NewInternalError("failed to get audit trail")
	}
	ledger.SortEntries(entries)

	intact := true
	if err := ledger.ValidateChain(entries); err != nil {
		intact = false
		uc.metrics.IncConsistencyWarning()
		uc.logger.Warnw("audit trail does not replay cleanly",
			"issue_id", query.IssueID,
			"error", err,
		)
	}

	return &dto.IssueDetailDTO{
		Issue:       dto.ToIssueDTO(iss),
		AuditTrail:  dto.ToLedgerEntryDTOList(entries),
		ChainIntact: intact,
	}, nil
}
