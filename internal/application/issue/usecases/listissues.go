package usecases

import (
	"context"

	"github.com/civiclens/civiclens/internal/application/issue/dto"
	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
	"github.com/civiclens/civiclens/internal/shared/utils"
)

type ListIssuesQuery struct {
	Category   string
	Status     string
	ReporterID string
	Page       int
	PageSize   int
}

type ListIssuesResult struct {
	Issues   []*dto.IssueDTO
	Total    int64
	Page     int
	PageSize int
}

type ListIssuesUseCase struct {
	issueRepo issue.Repository
	logger    logger.Interface
}

func NewListIssuesUseCase(
	issueRepo issue.Repository,
	logger logger.Interface,
) *ListIssuesUseCase {
	return &ListIssuesUseCase{
		issueRepo: issueRepo,
		logger:    logger,
	}
}

func (uc *ListIssuesUseCase) Execute(ctx context.Context, query ListIssuesQuery) (*ListIssuesResult, error) {
	filter, err := uc.buildFilter(query)
	if err != nil {
		return nil, err
	}

	issues, total, err := uc.issueRepo.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list issues", "error", err)
		return nil, errors.NewInternalError("failed to list issues")
	}

	return &ListIssuesResult{
		Issues:   dto.ToIssueDTOList(issues),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (uc *ListIssuesUseCase) buildFilter(query ListIssuesQuery) (issue.Filter, error) {
	p := utils.ValidatePagination(query.Page, query.PageSize)
	filter := issue.Filter{
		ReporterID: query.ReporterID,
		Page:       p.Page,
		PageSize:   p.PageSize,
	}

	if query.Category != "" {
		category, err := vo.NewCategory(query.Category)
		if err != nil {
			return issue.Filter{}, errors.NewValidationError(err.Error())
		}
		filter.Category = &category
	}
	if query.Status != "" {
		status, err := vo.NewIssueStatus(query.Status)
		if err != nil {
			return issue.Filter{}, errors.NewValidationError(err.Error())
		}
		filter.Status = status.Ptr()
	}
	return filter, nil
}
