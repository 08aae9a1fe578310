package usecases

import (
	"context"

	"github.com/civiclens/civiclens/internal/application/issue/dto"
	"github.com/civiclens/civiclens/internal/application/issue/services"
	"github.com/civiclens/civiclens/internal/infrastructure/storage"
	"github.com/civiclens/civiclens/internal/shared/authorization"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

// SubmitResolutionCommand carries the after photo either as an upload or as a
// reference to an image already in the blob store.
type SubmitResolutionCommand struct {
	IssueID       string
	Actor         *authorization.Actor
	AfterImageURL string
	Image         []byte
	ImageName     string
}

type SubmitResolutionResult struct {
	Verified      bool
	Outcome       string
	Reason        string
	Issue         *dto.IssueDTO
	CreditAwarded bool
}

type SubmitResolutionUseCase struct {
	verifier ResolutionChecker
	blobs    BlobWriter
	clock    services.Clock
	logger   logger.Interface
}

func NewSubmitResolutionUseCase(
	verifier ResolutionChecker,
	blobs BlobWriter,
	clock services.Clock,
	logger logger.Interface,
) *SubmitResolutionUseCase {
	return &SubmitResolutionUseCase{
		verifier: verifier,
		blobs:    blobs,
		clock:    clock,
		logger:   logger,
	}
}

func (uc *SubmitResolutionUseCase) Execute(ctx context.Context, cmd SubmitResolutionCommand) (*SubmitResolutionResult, error) {
	uc.logger.Infow("executing submit resolution use case",
		"issue_id", cmd.IssueID,
		"has_upload", len(cmd.Image) > 0,
	)

	if cmd.Actor == nil {
		return nil, errors.NewUnauthorizedError("authentication required")
	}
	if !cmd.Actor.IsOfficer() {
		return nil, errors.NewForbiddenError("only officers may submit resolutions")
	}

	afterImage := cmd.AfterImageURL
	if len(cmd.Image) > 0 {
		key := storage.ObjectKey(cmd.Actor.UserID, uc.clock.Now(), imageExtension(cmd.ImageName, cmd.Image))
		url, err := uc.blobs.Put(ctx, key, cmd.Image)
		if err != nil {
			uc.logger.Errorw("failed to store resolution image", "issue_id", cmd.IssueID, "error", err)
			return nil, errors.NewInternalError("failed to store image")
		}
		afterImage = url
	}

	res, err := uc.verifier.Verify(ctx, services.ResolutionCommand{
		IssueID:    cmd.IssueID,
		AfterImage: afterImage,
		Actor:      cmd.Actor,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("resolution submitted",
		"issue_id", cmd.IssueID,
		"verified", res.Verified,
		"outcome", res.Outcome,
	)

	return &SubmitResolutionResult{
		Verified:      res.Verified,
		Outcome:       string(res.Outcome),
		Reason:        res.Reason,
		Issue:         dto.ToIssueDTO(res.Issue),
		CreditAwarded: res.CreditAwarded,
	}, nil
}
