package usecases

import (
	"context"

	"github.com/civiclens/civiclens/internal/application/issue/dto"
	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/domain/reputation"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

const (
	dashboardLeaderLimit = 5
	dashboardRecentLimit = 5
)

type GetDashboardUseCase struct {
	issueRepo  issue.Repository
	creditRepo reputation.Repository
	logger     logger.Interface
}

func NewGetDashboardUseCase(
	issueRepo issue.Repository,
	creditRepo reputation.Repository,
	logger logger.Interface,
) *GetDashboardUseCase {
	return &GetDashboardUseCase{
		issueRepo:  issueRepo,
		creditRepo: creditRepo,
		logger:     logger,
	}
}

func (uc *GetDashboardUseCase) Execute(ctx context.Context) (*dto.DashboardDTO, error) {
	counts, err := uc.issueRepo.CountByStatus(ctx)
	if err != nil {
		uc.logger.Errorw("failed to count issues by status", "error", err)
		return nil, errors.NewInternalError("failed to load dashboard")
	}

	leaders, err := uc.creditRepo.TopBalances(ctx, dashboardLeaderLimit)
	if err != nil {
		uc.logger.Errorw("failed to load credit leaderboard", "error", err)
		return nil, errors.NewInternalError("failed to load dashboard")
	}

	recent, _, err := uc.issueRepo.List(ctx, issue.Filter{Page: 1, PageSize: dashboardRecentLimit})
	if err != nil {
		uc.logger.Errorw("failed to list recent issues", "error", err)
		return nil, errors.NewInternalError("failed to load dashboard")
	}

	out := &dto.DashboardDTO{
		ByStatus: make(map[string]int64, len(vo.AllStatuses)),
		Leaders:  dto.ToLeaderDTOList(leaders),
		Recent:   dto.ToIssueDTOList(recent),
	}
	if out.Recent == nil {
		out.Recent = []*dto.IssueDTO{}
	}
	for _, status := range vo.AllStatuses {
		n := counts[status]
		out.ByStatus[status.String()] = n
		out.Totals.Total += n
		switch {
		case status == vo.StatusResolved:
			out.Totals.Resolved += n
		case status.IsOpen():
			out.Totals.Open += n
		}
	}
	return out, nil
}
