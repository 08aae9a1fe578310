package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_EnqueueDedupesInFlight(t *testing.T) {
	q := NewMemoryQueue(8)
	ctx := context.Background()

	queued, err := q.Enqueue(ctx, "issue-1")
	require.NoError(t, err)
	assert.True(t, queued)

	queued, err = q.Enqueue(ctx, "issue-1")
	require.NoError(t, err)
	assert.False(t, queued, "second enqueue of an in-flight issue is a no-op")
	assert.Equal(t, 1, q.Len())

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "issue-1", job.IssueID)
	assert.Equal(t, 0, job.Attempt)

	queued, err = q.Enqueue(ctx, "issue-1")
	require.NoError(t, err)
	assert.False(t, queued, "issue stays in flight until completed")

	require.NoError(t, q.Complete(ctx, *job))
	queued, err = q.Enqueue(ctx, "issue-1")
	require.NoError(t, err)
	assert.True(t, queued)
}

func TestMemoryQueue_Full(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "a")
	require.NoError(t, err)

	queued, err := q.Enqueue(ctx, "b")
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.False(t, queued)

	// a rejected enqueue must not leave the issue marked in flight
	_, err = q.Dequeue(ctx)
	require.NoError(t, err)
	queued, err = q.Enqueue(ctx, "b")
	require.NoError(t, err)
	assert.True(t, queued)
}

func TestMemoryQueue_DequeueHonoursContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	job, err := q.Dequeue(ctx)
	assert.Nil(t, job)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueue_Close(t *testing.T) {
	q := NewMemoryQueue(1)
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	_, err := q.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = q.Enqueue(context.Background(), "x")
	assert.ErrorIs(t, err, ErrClosed)
}
