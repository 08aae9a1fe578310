package queue

import (
	"context"
	"sync"
)

// MemoryQueue is an in-process queue used when Redis is disabled. Jobs do not
// survive a restart; the stale sweeper re-enqueues them.
type MemoryQueue struct {
	jobs chan Job
	done chan struct{}

	mu       sync.Mutex
	inFlight map[string]struct{}
	closed   bool
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity < 1 {
		capacity = 1024
	}
	return &MemoryQueue{
		jobs:     make(chan Job, capacity),
		done:     make(chan struct{}),
		inFlight: make(map[string]struct{}),
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, issueID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, ErrClosed
	}
	if _, ok := q.inFlight[issueID]; ok {
		return false, nil
	}
	if err := q.push(NewJob(issueID)); err != nil {
		return false, err
	}
	q.inFlight[issueID] = struct{}{}
	return true, nil
}

func (q *MemoryQueue) Requeue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	return q.push(job)
}

// push must be called with mu held.
func (q *MemoryQueue) push(job Job) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case job := <-q.jobs:
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		return nil, ErrClosed
	}
}

func (q *MemoryQueue) Complete(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inFlight, job.IssueID)
	return nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	return nil
}

// Len returns the number of jobs waiting.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}
