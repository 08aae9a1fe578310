package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/domain/reputation"
	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/infrastructure/oracle"
	"github.com/civiclens/civiclens/internal/infrastructure/storage"
	"github.com/civiclens/civiclens/internal/shared/authorization"
	apperrors "github.com/civiclens/civiclens/internal/shared/errors"
)

const afterRef = "http://localhost:8080/media/after.jpg"

func newVerifier(f *fixture, m *metrics.Metrics) *ResolutionVerifier {
	return NewResolutionVerifier(f.sm, f.issues, f.credits, f.fetcher, f.gateway, 50, fixedClock, m, newTestLogger())
}

func validatedFixture(t *testing.T, opts ...func(*issue.NewIssueParams)) (*fixture, *issue.Issue) {
	t.Helper()
	iss := newPendingIssue(t, opts...)
	f := newFixture(iss)
	f.issues.set(t, iss.ID(), vo.StatusValidated)
	return f, iss
}

func answer(reply string) func(context.Context, oracle.Request) (string, error) {
	return func(context.Context, oracle.Request) (string, error) { return reply, nil }
}

func TestResolutionVerifier_YesResolvesAndCreditsOnce(t *testing.T) {
	f, iss := validatedFixture(t)
	f.oracle.GenerateFunc = answer("YES")
	m := metrics.New()
	v := newVerifier(f, m)
	ctx := context.Background()

	res, err := v.Verify(ctx, ResolutionCommand{IssueID: iss.ID(), AfterImage: afterRef, Actor: officer})

	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.True(t, res.CreditAwarded)

	stored, _ := f.issues.GetByID(ctx, iss.ID())
	assert.Equal(t, vo.StatusResolved, stored.Status())
	require.NotNil(t, stored.AfterImage())
	assert.Equal(t, afterRef, *stored.AfterImage())

	require.Len(t, f.ledger.entries, 1)
	entry := f.ledger.entries[0]
	assert.Equal(t, "ai_confirmed", entry.Metadata()["verification"])
	assert.Equal(t, afterRef, entry.Metadata()["after_image"])
	require.NotNil(t, entry.ActorID())
	assert.Equal(t, officer.UserID, *entry.ActorID())

	balance, _ := f.credits.GetBalance(ctx, iss.ReporterID())
	assert.Equal(t, int64(50), balance)

	require.Len(t, f.oracle.requests, 1)
	assert.Len(t, f.oracle.requests[0].Images, 2)

	_, err = v.Verify(ctx, ResolutionCommand{IssueID: iss.ID(), AfterImage: afterRef, Actor: officer})
	assert.True(t, apperrors.IsInvalidTransitionError(err))
	balance, _ = f.credits.GetBalance(ctx, iss.ReporterID())
	assert.Equal(t, int64(50), balance)
	assert.Len(t, f.oracle.requests, 1)
	assert.Equal(t, 1.0, counterValue(t, m, "civiclens_rewards_issued_total"))
}

func TestResolutionVerifier_NoLeavesStatus(t *testing.T) {
	f, iss := validatedFixture(t)
	f.oracle.GenerateFunc = answer("No.")

	res, err := newVerifier(f, nil).Verify(context.Background(), ResolutionCommand{IssueID: iss.ID(), AfterImage: afterRef, Actor: officer})

	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	stored, _ := f.issues.GetByID(context.Background(), iss.ID())
	assert.Equal(t, vo.StatusValidated, stored.Status())
	assert.Nil(t, stored.AfterImage())
	assert.Empty(t, f.ledger.entries)
	assert.Empty(t, f.credits.grants)
}

func TestResolutionVerifier_FailsClosed(t *testing.T) {
	t.Run("oracle error", func(t *testing.T) {
		f, iss := validatedFixture(t)
		f.oracle.GenerateFunc = func(context.Context, oracle.Request) (string, error) {
			return "", errors.New("deadline exceeded")
		}

		res, err := newVerifier(f, nil).Verify(context.Background(), ResolutionCommand{IssueID: iss.ID(), AfterImage: afterRef, Actor: officer})

		require.NoError(t, err)
		assert.False(t, res.Verified)
		assert.Equal(t, OutcomeUnavailable, res.Outcome)
	})

	t.Run("after image unreachable", func(t *testing.T) {
		f, iss := validatedFixture(t)
		f.fetcher.FetchFunc = func(ctx context.Context, ref string) (*storage.Image, error) {
			if ref == afterRef {
				return nil, storage.ErrNotFound
			}
			return &storage.Image{MIMEType: "image/jpeg", Data: []byte("before")}, nil
		}

		res, err := newVerifier(f, nil).Verify(context.Background(), ResolutionCommand{IssueID: iss.ID(), AfterImage: afterRef, Actor: officer})

		require.NoError(t, err)
		assert.Equal(t, OutcomeUnavailable, res.Outcome)
		assert.Empty(t, f.oracle.requests)
	})
}

func TestResolutionVerifier_Preconditions(t *testing.T) {
	citizen := authorization.NewActor("11111111-1111-4111-8111-111111111111", authorization.RoleCitizen)

	tests := []struct {
		name     string
		setup    func(t *testing.T) (*fixture, string)
		cmd      func(id string) ResolutionCommand
		wantType apperrors.ErrorType
	}{
		{
			name: "citizen",
			setup: func(t *testing.T) (*fixture, string) {
				f, iss := validatedFixture(t)
				return f, iss.ID()
			},
			cmd:      func(id string) ResolutionCommand { return ResolutionCommand{IssueID: id, AfterImage: afterRef, Actor: citizen} },
			wantType: apperrors.ErrorTypeForbidden,
		},
		{
			name: "anonymous",
			setup: func(t *testing.T) (*fixture, string) {
				f, iss := validatedFixture(t)
				return f, iss.ID()
			},
			cmd:      func(id string) ResolutionCommand { return ResolutionCommand{IssueID: id, AfterImage: afterRef} },
			wantType: apperrors.ErrorTypeUnauthorized,
		},
		{
			name: "missing after image",
			setup: func(t *testing.T) (*fixture, string) {
				f, iss := validatedFixture(t)
				return f, iss.ID()
			},
			cmd:      func(id string) ResolutionCommand { return ResolutionCommand{IssueID: id, AfterImage: "  ", Actor: officer} },
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name: "no before image",
			setup: func(t *testing.T) (*fixture, string) {
				f, iss := validatedFixture(t, withoutImage)
				return f, iss.ID()
			},
			cmd:      func(id string) ResolutionCommand { return ResolutionCommand{IssueID: id, AfterImage: afterRef, Actor: officer} },
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name: "still pending",
			setup: func(t *testing.T) (*fixture, string) {
				iss := newPendingIssue(t)
				return newFixture(iss), iss.ID()
			},
			cmd:      func(id string) ResolutionCommand { return ResolutionCommand{IssueID: id, AfterImage: afterRef, Actor: officer} },
			wantType: apperrors.ErrorTypeInvalidTransition,
		},
		{
			name: "unknown issue",
			setup: func(t *testing.T) (*fixture, string) {
				return newFixture(), "missing"
			},
			cmd:      func(id string) ResolutionCommand { return ResolutionCommand{IssueID: id, AfterImage: afterRef, Actor: officer} },
			wantType: apperrors.ErrorTypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, id := tt.setup(t)
			f.oracle.GenerateFunc = answer("YES")

			_, err := newVerifier(f, nil).Verify(context.Background(), tt.cmd(id))

			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), err.Error())
			assert.Empty(t, f.oracle.requests)
		})
	}
}

func TestResolutionVerifier_RewardFailureKeepsResolution(t *testing.T) {
	f, iss := validatedFixture(t)
	f.oracle.GenerateFunc = answer("YES")
	f.credits.AwardFunc = func(ctx context.Context, g reputation.Grant) (bool, error) {
		return false, errors.New("deadlock")
	}
	m := metrics.New()

	res, err := newVerifier(f, m).Verify(context.Background(), ResolutionCommand{IssueID: iss.ID(), AfterImage: afterRef, Actor: officer})

	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.False(t, res.CreditAwarded)
	stored, _ := f.issues.GetByID(context.Background(), iss.ID())
	assert.Equal(t, vo.StatusResolved, stored.Status())
	assert.Equal(t, 1.0, counterValue(t, m, "civiclens_rewards_failed_total"))
}
