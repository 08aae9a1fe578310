package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
)

func TestSweepStaleTriageUseCase_Execute(t *testing.T) {
	var (
		gotStatuses []vo.IssueStatus
		gotCutoff   time.Time
		gotLimit    int
	)
	repo := &mockIssueRepository{
		ListStaleIDsFunc: func(ctx context.Context, statuses []vo.IssueStatus, updatedBefore time.Time, limit int) ([]string, error) {
			gotStatuses, gotCutoff, gotLimit = statuses, updatedBefore, limit
			return []string{"a", "b", "c"}, nil
		},
	}
	queue := &mockEnqueuer{
		EnqueueFunc: func(ctx context.Context, issueID string) (bool, error) {
			switch issueID {
			case "b":
				return false, nil
			case "c":
				return false, errors.New("queue closed")
			}
			return true, nil
		},
	}

	n, err := NewSweepStaleTriageUseCase(repo, queue, 15*time.Minute, 50, testClock, newTestLogger()).
		Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []vo.IssueStatus{vo.StatusPending, vo.StatusAIAnalyzing}, gotStatuses)
	assert.Equal(t, testNow.Add(-15*time.Minute), gotCutoff)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, []string{"a", "b", "c"}, queue.ids)
}

func TestSweepStaleTriageUseCase_Execute_Defaults(t *testing.T) {
	var gotCutoff time.Time
	var gotLimit int
	repo := &mockIssueRepository{
		ListStaleIDsFunc: func(ctx context.Context, statuses []vo.IssueStatus, updatedBefore time.Time, limit int) ([]string, error) {
			gotCutoff, gotLimit = updatedBefore, limit
			return nil, nil
		},
	}
	queue := &mockEnqueuer{}

	n, err := NewSweepStaleTriageUseCase(repo, queue, 0, 0, testClock, newTestLogger()).Execute(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, testNow.Add(-10*time.Minute), gotCutoff)
	assert.Equal(t, 100, gotLimit)
	assert.Empty(t, queue.ids)
}

func TestSweepStaleTriageUseCase_Execute_QueryFailure(t *testing.T) {
	repo := &mockIssueRepository{
		ListStaleIDsFunc: func(ctx context.Context, statuses []vo.IssueStatus, updatedBefore time.Time, limit int) ([]string, error) {
			return nil, errors.New("no such table: issues")
		},
	}

	_, err := NewSweepStaleTriageUseCase(repo, &mockEnqueuer{}, time.Minute, 10, testClock, newTestLogger()).
		Execute(context.Background())

	assert.Error(t, err)
}
