package usecases

import (
	"context"
	"net/http"

	"github.com/civiclens/civiclens/internal/application/issue/services"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

type CheckDuplicateCommand struct {
	Category string
	Lat      float64
	Lng      float64
	Image    []byte
}

type CheckDuplicateResult struct {
	IsDuplicate bool
	IssueID     string
	Status      string
	ReportCount int
}

// CheckDuplicateUseCase runs the duplicate detector without creating or
// merging anything.
type CheckDuplicateUseCase struct {
	duplicates DuplicateFinder
	logger     logger.Interface
}

func NewCheckDuplicateUseCase(
	duplicates DuplicateFinder,
	logger logger.Interface,
) *CheckDuplicateUseCase {
	return &CheckDuplicateUseCase{
		duplicates: duplicates,
		logger:     logger,
	}
}

func (uc *CheckDuplicateUseCase) Execute(ctx context.Context, cmd CheckDuplicateCommand) (*CheckDuplicateResult, error) {
	uc.logger.Infow("executing check duplicate use case", "category", cmd.Category, "lat", cmd.Lat, "lng", cmd.Lng)

	if len(cmd.Image) == 0 {
		return nil, errors.NewValidationError("image is required")
	}
	category, err := vo.NewCategory(cmd.Category)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if _, err := vo.NewCoordinates(cmd.Lat, cmd.Lng); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	res := uc.duplicates.Find(ctx, services.DuplicateQuery{
		Image:    cmd.Image,
		MIMEType: http.DetectContentType(cmd.Image),
		Lat:      cmd.Lat,
		Lng:      cmd.Lng,
		Category: category,
	})
	if !res.IsDuplicate {
		return &CheckDuplicateResult{}, nil
	}

	return &CheckDuplicateResult{
		IsDuplicate: true,
		IssueID:     res.Match.ID,
		Status:      res.Match.Status.String(),
		ReportCount: res.Match.ReportCount,
	}, nil
}
