package usecases

import (
	"context"
	stderrors "errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/civiclens/civiclens/internal/application/issue/dto"
	"github.com/civiclens/civiclens/internal/application/issue/services"
	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/infrastructure/geocoding"
	"github.com/civiclens/civiclens/internal/infrastructure/ratelimit"
	"github.com/civiclens/civiclens/internal/infrastructure/storage"
	"github.com/civiclens/civiclens/internal/shared/constants"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
	"github.com/civiclens/civiclens/internal/shared/utils"
)

type CreateIssueCommand struct {
	ReporterID  string
	Category    string
	Subcategory string
	Title       string
	Description string
	Lat         float64
	Lng         float64
	Image       []byte
	ImageName   string
}

// CreateIssueResult is either a new issue or an acknowledgment that the report
// was merged into an existing one.
type CreateIssueResult struct {
	Merged       bool
	Issue        *dto.IssueDTO
	MergedInto   string
	ReportCount  int
	TriageQueued bool
}

type CreateIssueOptions struct {
	RequireImage bool
	Limit        ratelimit.Limit
	Clock        services.Clock
}

type CreateIssueUseCase struct {
	stateMachine IssueTransitioner
	provenance   ProvenanceChecker
	duplicates   DuplicateFinder
	blobs        BlobWriter
	geocoder     Geocoder
	queue        TriageEnqueuer
	limiter      ratelimit.RateLimiter
	opts         CreateIssueOptions
	logger       logger.Interface
}

func NewCreateIssueUseCase(
	stateMachine IssueTransitioner,
	provenance ProvenanceChecker,
	duplicates DuplicateFinder,
	blobs BlobWriter,
	geocoder Geocoder,
	queue TriageEnqueuer,
	limiter ratelimit.RateLimiter,
	opts CreateIssueOptions,
	logger logger.Interface,
) *CreateIssueUseCase {
	return &CreateIssueUseCase{
		stateMachine: stateMachine,
		provenance:   provenance,
		duplicates:   duplicates,
		blobs:        blobs,
		geocoder:     geocoder,
		queue:        queue,
		limiter:      limiter,
		opts:         opts,
		logger:       logger,
	}
}

func (uc *CreateIssueUseCase) Execute(ctx context.Context, cmd CreateIssueCommand) (*CreateIssueResult, error) {
	uc.logger.Infow("executing create issue use case",
		"reporter_id", cmd.ReporterID,
		"category", cmd.Category,
		"has_image", len(cmd.Image) > 0,
	)

	cmd.Title = utils.SanitizeText(cmd.Title)
	cmd.Description = utils.SanitizeText(cmd.Description)
	cmd.Subcategory = utils.SanitizeText(cmd.Subcategory)

	category, location, err := uc.validateCommand(cmd)
	if err != nil {
		uc.logger.Warnw("invalid create issue command", "error", err)
		return nil, err
	}

	if err := uc.checkRateLimit(ctx, cmd.ReporterID); err != nil {
		return nil, err
	}

	hasImage := len(cmd.Image) > 0
	if hasImage {
		if res := uc.provenance.Verify(cmd.Image, cmd.Lat, cmd.Lng); !res.Valid {
			uc.logger.Infow("report rejected by provenance check",
				"reporter_id", cmd.ReporterID,
				"kind", res.Kind,
			)
			return nil, res.Err()
		}
	}

	now := uc.opts.Clock.Now()
	imageURL := ""
	if hasImage {
		key := storage.ObjectKey(cmd.ReporterID, now, imageExtension(cmd.ImageName, cmd.Image))
		imageURL, err = uc.blobs.Put(ctx, key, cmd.Image)
		if err != nil {
			uc.logger.Errorw("failed to store report image", "reporter_id", cmd.ReporterID, "error", err)
			return nil, errors.NewInternalError("failed to store image")
		}

		dup := uc.duplicates.Find(ctx, services.DuplicateQuery{
			Image:    cmd.Image,
			MIMEType: http.DetectContentType(cmd.Image),
			Lat:      cmd.Lat,
			Lng:      cmd.Lng,
			Category: category,
		})
		if dup.IsDuplicate {
			merged, err := uc.stateMachine.MergeReport(ctx, dup.Match.ID, cmd.ReporterID, imageURL)
			switch {
			case err == nil:
				return &CreateIssueResult{
					Merged:      true,
					MergedInto:  merged.IssueID,
					ReportCount: merged.ReportCount,
				}, nil
			case stderrors.Is(err, issue.ErrNotMergeable):
				uc.logger.Infow("duplicate moved on before merge, filing new issue",
					"reporter_id", cmd.ReporterID,
					"duplicate_of", dup.Match.ID,
				)
			default:
				return nil, err
			}
		}
	}

	address := geocoding.FallbackAddress(cmd.Lat, cmd.Lng)
	if uc.geocoder != nil {
		address = uc.geocoder.ReverseGeocode(ctx, cmd.Lat, cmd.Lng)
	}

	iss, err := issue.NewIssue(issue.NewIssueParams{
		ReporterID:  cmd.ReporterID,
		Category:    category,
		Subcategory: cmd.Subcategory,
		Title:       cmd.Title,
		Description: cmd.Description,
		Location:    location,
		Address:     address.Formatted,
		BeforeImage: imageURL,
	}, now)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := uc.stateMachine.Create(ctx, iss, map[string]any{
		"category":  category.String(),
		"has_image": hasImage,
	}); err != nil {
		uc.logger.Errorw("failed to create issue", "reporter_id", cmd.ReporterID, "error", err)
		return nil, errors.NewInternalError("failed to create issue")
	}

	queued, err := uc.queue.Enqueue(ctx, iss.ID())
	if err != nil {
		uc.logger.Warnw("failed to enqueue triage, stale sweep will retry",
			"issue_id", iss.ID(),
			"error", err,
		)
	}

	uc.logger.Infow("issue created successfully",
		"issue_id", iss.ID(),
		"reporter_id", cmd.ReporterID,
		"triage_queued", queued,
	)

	return &CreateIssueResult{
		Issue:        dto.ToIssueDTO(iss),
		ReportCount:  iss.ReportCount(),
		TriageQueued: queued,
	}, nil
}

func (uc *CreateIssueUseCase) validateCommand(cmd CreateIssueCommand) (vo.Category, vo.Coordinates, error) {
	if cmd.ReporterID == "" {
		return "", vo.Coordinates{}, errors.NewUnauthorizedError("reporter identity is required")
	}
	if cmd.Title == "" {
		return "", vo.Coordinates{}, errors.NewValidationError("title is required")
	}
	category, err := vo.NewCategory(cmd.Category)
	if err != nil {
		return "", vo.Coordinates{}, errors.NewValidationError(err.Error())
	}
	location, err := vo.NewCoordinates(cmd.Lat, cmd.Lng)
	if err != nil {
		return "", vo.Coordinates{}, errors.NewValidationError(err.Error())
	}
	if uc.opts.RequireImage && len(cmd.Image) == 0 {
		return "", vo.Coordinates{}, errors.NewValidationError("image is required")
	}
	return category, location, nil
}

// checkRateLimit fails open when the limiter backend is unavailable.
func (uc *CreateIssueUseCase) checkRateLimit(ctx context.Context, reporterID string) error {
	if uc.limiter == nil || uc.opts.Limit.IsZero() {
		return nil
	}
	allowed, err := uc.limiter.Allow(ctx, constants.RateLimitScopeCreateIssue+":"+reporterID, uc.opts.Limit)
	if err != nil {
		uc.logger.Warnw("rate limiter unavailable, allowing report", "reporter_id", reporterID, "error", err)
		return nil
	}
	if !allowed {
		return errors.NewRateLimitedError("too many reports, please try again later")
	}
	return nil
}

func imageExtension(name string, data []byte) string {
	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		return ext
	}
	switch http.DetectContentType(data) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	}
	return "jpg"
}
