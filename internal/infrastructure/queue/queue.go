// Package queue hands triage jobs from the request path to background workers.
package queue

import (
	"context"
	"errors"
	"time"
)

var (
	ErrClosed    = errors.New("queue closed")
	ErrQueueFull = errors.New("queue full")
)

// Job asks a worker to triage one issue. Attempt counts earlier failed runs.
type Job struct {
	IssueID    string `json:"issue_id"`
	Attempt    int    `json:"attempt"`
	EnqueuedAt int64  `json:"enqueued_at"`
}

func NewJob(issueID string) Job {
	return Job{IssueID: issueID, EnqueuedAt: time.Now().UnixMilli()}
}

// TriageQueue delivers each job at least once. An issue is queued at most once
// until its job is completed.
type TriageQueue interface {
	// Enqueue reports false when the issue already has a job in flight.
	Enqueue(ctx context.Context, issueID string) (bool, error)
	// Requeue puts a failed job back without touching the in-flight marker.
	Requeue(ctx context.Context, job Job) error
	// Dequeue blocks until a job is available, ctx is done or the queue is closed.
	Dequeue(ctx context.Context) (*Job, error)
	// Complete clears the in-flight marker so the issue can be queued again.
	Complete(ctx context.Context, job Job) error
	Close() error
}
