package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/civiclens/civiclens/internal/application/issue/services"
	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

const (
	defaultStaleAfter = 10 * time.Minute
	defaultSweepBatch = 100
)

// SweepStaleTriageUseCase re-enqueues issues whose triage job was lost, either
// because the enqueue after create failed or a worker died mid-analysis.
type SweepStaleTriageUseCase struct {
	issueRepo  issue.Repository
	queue      TriageEnqueuer
	staleAfter time.Duration
	batch      int
	clock      services.Clock
	logger     logger.Interface
}

func NewSweepStaleTriageUseCase(
	issueRepo issue.Repository,
	queue TriageEnqueuer,
	staleAfter time.Duration,
	batch int,
	clock services.Clock,
	logger logger.Interface,
) *SweepStaleTriageUseCase {
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &SweepStaleTriageUseCase{
		issueRepo:  issueRepo,
		queue:      queue,
		staleAfter: staleAfter,
		batch:      batch,
		clock:      clock,
		logger:     logger,
	}
}

// Execute returns the number of issues newly queued. Issues that already have
// a job in flight are not counted.
func (uc *SweepStaleTriageUseCase) Execute(ctx context.Context) (int, error) {
	cutoff := uc.clock.Now().Add(-uc.staleAfter)
	ids, err := uc.issueRepo.ListStaleIDs(ctx,
		[]vo.IssueStatus{vo.StatusPending, vo.StatusAIAnalyzing},
		cutoff,
		uc.batch,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale issues: %w", err)
	}

	if len(ids) == 0 {
		return 0, nil
	}

	uc.logger.Infow("found issues with stale triage", "count", len(ids), "cutoff", cutoff)

	queued := 0
	for _, id := range ids {
		ok, err := uc.queue.Enqueue(ctx, id)
		if err != nil {
			uc.logger.Errorw("failed to re-enqueue stale issue", "issue_id", id, "error", err)
			continue
		}
		if ok {
			queued++
		}
	}
	return queued, nil
}
