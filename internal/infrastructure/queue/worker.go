package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/shared/goroutine"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

// Handler runs one triage job. A returned error schedules a retry.
type Handler func(ctx context.Context, issueID string) error

type WorkerConfig struct {
	Concurrency int
	MaxAttempts int
	JobTimeout  time.Duration
}

type Worker struct {
	queue   TriageQueue
	handler Handler
	cfg     WorkerConfig
	logger  logger.Interface
	metrics *metrics.Metrics

	wg     sync.WaitGroup
	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewWorker(q TriageQueue, handler Handler, cfg WorkerConfig, log logger.Interface, m *metrics.Metrics) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	return &Worker{
		queue:   q,
		handler: handler,
		cfg:     cfg,
		logger:  log.Named("triage-worker"),
		metrics: m,
	}
}

// Start launches the worker goroutines. They run until Stop or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.cfg.Concurrency; i++ {
		name := fmt.Sprintf("triage-worker-%d", i)
		w.wg.Add(1)
		goroutine.SafeGo(w.logger, name, func() {
			defer w.wg.Done()
			w.loop(ctx)
		})
	}
	w.logger.Infow("triage workers started", "concurrency", w.cfg.Concurrency, "max_attempts", w.cfg.MaxAttempts)
}

// Stop cancels the workers and waits for in-flight jobs to return.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()
	w.logger.Infow("triage workers stopped")
}

func (w *Worker) loop(ctx context.Context) {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrClosed) {
				return
			}
			w.logger.Errorw("failed to dequeue triage job", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		w.process(ctx, *job)
	}
}

// process runs one job. Unless the job was handed back to the queue for a
// retry its in-flight marker is cleared, including when the handler panics.
func (w *Worker) process(ctx context.Context, job Job) {
	requeued := false
	defer func() {
		if !requeued {
			w.complete(ctx, job)
		}
	}()
	defer goroutine.Recover(w.logger, "triage-job")

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()
	err := w.handler(jobCtx, job.IssueID)
	if err == nil {
		return
	}

	if job.Attempt+1 < w.cfg.MaxAttempts && ctx.Err() == nil {
		retry := job
		retry.Attempt++
		w.logger.Warnw("triage job failed, retrying",
			"issue_id", job.IssueID,
			"attempt", retry.Attempt,
			"error", err,
		)
		rqErr := w.queue.Requeue(ctx, retry)
		if rqErr == nil {
			requeued = true
			w.metrics.IncQueueRetry()
			return
		}
		w.logger.Errorw("failed to requeue triage job", "issue_id", job.IssueID, "error", rqErr)
		return
	}

	w.logger.Errorw("triage job abandoned",
		"issue_id", job.IssueID,
		"attempts", job.Attempt+1,
		"error", err,
	)
}

func (w *Worker) complete(ctx context.Context, job Job) {
	if err := w.queue.Complete(context.WithoutCancel(ctx), job); err != nil {
		w.logger.Errorw("failed to complete triage job", "issue_id", job.IssueID, "error", err)
	}
}
