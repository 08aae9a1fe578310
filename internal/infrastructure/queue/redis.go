package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultListKey     = "civiclens:triage:jobs"
	inFlightKeyPrefix  = "civiclens:triage:inflight:"
	defaultInFlightTTL = time.Hour
	blockTimeout       = 5 * time.Second
)

// RedisQueue keeps jobs in a Redis list so the API and standalone workers can
// run as separate processes.
type RedisQueue struct {
	client      *redis.Client
	listKey     string
	inFlightTTL time.Duration
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{
		client:      client,
		listKey:     defaultListKey,
		inFlightTTL: defaultInFlightTTL,
	}
}

func (q *RedisQueue) inFlightKey(issueID string) string {
	return inFlightKeyPrefix + issueID
}

func (q *RedisQueue) Enqueue(ctx context.Context, issueID string) (bool, error) {
	ok, err := q.client.SetNX(ctx, q.inFlightKey(issueID), 1, q.inFlightTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark triage job in flight: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := q.push(ctx, NewJob(issueID)); err != nil {
		q.client.Del(ctx, q.inFlightKey(issueID))
		return false, err
	}
	return true, nil
}

func (q *RedisQueue) Requeue(ctx context.Context, job Job) error {
	return q.push(ctx, job)
}

func (q *RedisQueue) push(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode triage job: %w", err)
	}
	if err := q.client.LPush(ctx, q.listKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to push triage job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := q.client.BRPop(ctx, blockTimeout, q.listKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, redis.ErrClosed) {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("failed to pop triage job: %w", err)
		}

		// res is [key, value]
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return nil, fmt.Errorf("failed to decode triage job: %w", err)
		}
		return &job, nil
	}
}

func (q *RedisQueue) Complete(ctx context.Context, job Job) error {
	if err := q.client.Del(ctx, q.inFlightKey(job.IssueID)).Err(); err != nil {
		return fmt.Errorf("failed to clear triage job marker: %w", err)
	}
	return nil
}

// Close leaves the shared client open; its owner closes it.
func (q *RedisQueue) Close() error {
	return nil
}
