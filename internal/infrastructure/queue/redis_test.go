package queue

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)

	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestRedisQueue_RoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	q := NewRedisQueue(client)
	ctx := context.Background()

	queued, err := q.Enqueue(ctx, "issue-1")
	require.NoError(t, err)
	assert.True(t, queued)

	queued, err = q.Enqueue(ctx, "issue-1")
	require.NoError(t, err)
	assert.False(t, queued)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "issue-1", job.IssueID)

	job.Attempt++
	require.NoError(t, q.Requeue(ctx, *job))
	job, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, job.Attempt)

	require.NoError(t, q.Complete(ctx, *job))
	queued, err = q.Enqueue(ctx, "issue-1")
	require.NoError(t, err)
	assert.True(t, queued)
}

func TestRedisQueue_DequeueHonoursContext(t *testing.T) {
	client := setupTestRedis(t)
	q := NewRedisQueue(client)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	job, err := q.Dequeue(ctx)
	assert.Nil(t, job)
	assert.Error(t, err)
}
