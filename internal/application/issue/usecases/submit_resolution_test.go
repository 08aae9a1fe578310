package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/civiclens/internal/application/issue/services"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	apperrors "github.com/civiclens/civiclens/internal/shared/errors"
)

func TestSubmitResolutionUseCase_Execute_UploadsAfterPhoto(t *testing.T) {
	resolved := newTestIssue(t, vo.StatusResolved)
	verifier := &mockResolutionChecker{
		VerifyFunc: func(ctx context.Context, cmd services.ResolutionCommand) (*services.ResolutionResult, error) {
			return &services.ResolutionResult{
				Verified:      true,
				Outcome:       services.OutcomeConfirmed,
				Reason:        "Repair confirmed by AI inspection.",
				Issue:         resolved,
				CreditAwarded: true,
			}, nil
		},
	}
	blobs := &mockBlobWriter{}
	useCase := NewSubmitResolutionUseCase(verifier, blobs, testClock, newTestLogger())

	result, err := useCase.Execute(context.Background(), SubmitResolutionCommand{
		IssueID:   "issue-1",
		Actor:     officer,
		Image:     jpegBytes,
		ImageName: "after.jpg",
	})

	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, "ai_confirmed", result.Outcome)
	assert.True(t, result.CreditAwarded)
	assert.Equal(t, "resolved", result.Issue.Status)

	assert.Equal(t, []string{"officer-1/1773489600000.jpg"}, blobs.keys)
	require.Len(t, verifier.commands, 1)
	assert.Equal(t, "/media/officer-1/1773489600000.jpg", verifier.commands[0].AfterImage)
	assert.Equal(t, officer, verifier.commands[0].Actor)
}

func TestSubmitResolutionUseCase_Execute_ReferencedPhoto(t *testing.T) {
	verifier := &mockResolutionChecker{
		VerifyFunc: func(ctx context.Context, cmd services.ResolutionCommand) (*services.ResolutionResult, error) {
			return &services.ResolutionResult{
				Outcome: services.OutcomeRejected,
				Issue:   newTestIssue(t, vo.StatusInProgress),
			}, nil
		},
	}
	blobs := &mockBlobWriter{}
	useCase := NewSubmitResolutionUseCase(verifier, blobs, testClock, newTestLogger())

	result, err := useCase.Execute(context.Background(), SubmitResolutionCommand{
		IssueID:       "issue-1",
		Actor:         officer,
		AfterImageURL: "https://cdn.example.org/after.jpg",
	})

	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, "rejected_by_ai", result.Outcome)
	assert.Equal(t, "in_progress", result.Issue.Status)
	assert.Empty(t, blobs.keys)
	assert.Equal(t, "https://cdn.example.org/after.jpg", verifier.commands[0].AfterImage)
}

func TestSubmitResolutionUseCase_Execute_Refused(t *testing.T) {
	t.Run("citizen never uploads", func(t *testing.T) {
		verifier := &mockResolutionChecker{}
		blobs := &mockBlobWriter{}
		useCase := NewSubmitResolutionUseCase(verifier, blobs, testClock, newTestLogger())

		_, err := useCase.Execute(context.Background(), SubmitResolutionCommand{
			IssueID: "issue-1",
			Actor:   citizen,
			Image:   jpegBytes,
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		assert.Empty(t, blobs.keys)
		assert.Empty(t, verifier.commands)
	})

	t.Run("storage failure", func(t *testing.T) {
		verifier := &mockResolutionChecker{}
		blobs := &mockBlobWriter{
			PutFunc: func(ctx context.Context, key string, data []byte) (string, error) {
				return "", errors.New("disk full")
			},
		}
		useCase := NewSubmitResolutionUseCase(verifier, blobs, testClock, newTestLogger())

		_, err := useCase.Execute(context.Background(), SubmitResolutionCommand{
			IssueID: "issue-1",
			Actor:   officer,
			Image:   jpegBytes,
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
		assert.Empty(t, verifier.commands)
	})

	t.Run("verifier error passes through", func(t *testing.T) {
		verifier := &mockResolutionChecker{
			VerifyFunc: func(ctx context.Context, cmd services.ResolutionCommand) (*services.ResolutionResult, error) {
				return nil, apperrors.NewInvalidTransitionError("resolved", "resolved")
			},
		}
		useCase := NewSubmitResolutionUseCase(verifier, &mockBlobWriter{}, testClock, newTestLogger())

		_, err := useCase.Execute(context.Background(), SubmitResolutionCommand{
			IssueID:       "issue-1",
			Actor:         officer,
			AfterImageURL: "/media/officer-1/1.jpg",
		})

		assert.True(t, apperrors.IsInvalidTransitionError(err))
	})
}
