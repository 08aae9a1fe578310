package http

import (
	"github.com/civiclens/civiclens/internal/application/issue/usecases"
	"github.com/civiclens/civiclens/internal/infrastructure/ratelimit"
)

// allUseCases holds all use case instances used by the application.
type allUseCases struct {
	// Intake
	createIssueUC    *usecases.CreateIssueUseCase
	checkDuplicateUC *usecases.CheckDuplicateUseCase

	// Queries
	getIssueUC     *usecases.GetIssueUseCase
	listIssuesUC   *usecases.ListIssuesUseCase
	getDashboardUC *usecases.GetDashboardUseCase

	// Officer actions
	changeStatusUC     *usecases.ChangeStatusUseCase
	triggerTriageUC    *usecases.TriggerTriageUseCase
	submitResolutionUC *usecases.SubmitResolutionUseCase

	// Background
	sweepStaleTriageUC *usecases.SweepStaleTriageUseCase
}

func (c *Container) initUseCases() {
	cfg := c.cfg
	log := c.log
	repos := c.repos
	svcs := c.svcs

	c.ucs = &allUseCases{
		createIssueUC: usecases.NewCreateIssueUseCase(
			svcs.stateMachine, svcs.provenance, svcs.duplicates, c.blobs, svcs.geocoder, c.queue, c.limiter,
			usecases.CreateIssueOptions{
				RequireImage: cfg.Intake.RequireImage,
				Limit:        ratelimit.Limit{PerHour: cfg.Intake.ReportsPerUserHourly},
				Clock:        svcs.clock,
			},
			log,
		),
		checkDuplicateUC:   usecases.NewCheckDuplicateUseCase(svcs.duplicates, log),
		getIssueUC:         usecases.NewGetIssueUseCase(repos.issueRepo, repos.ledgerRepo, c.metrics, log),
		listIssuesUC:       usecases.NewListIssuesUseCase(repos.issueRepo, log),
		getDashboardUC:     usecases.NewGetDashboardUseCase(repos.issueRepo, repos.creditRepo, log),
		changeStatusUC:     usecases.NewChangeStatusUseCase(svcs.stateMachine, log),
		triggerTriageUC:    usecases.NewTriggerTriageUseCase(repos.issueRepo, c.queue, svcs.triage, log),
		submitResolutionUC: usecases.NewSubmitResolutionUseCase(svcs.resolution, c.blobs, svcs.clock, log),
		sweepStaleTriageUC: usecases.NewSweepStaleTriageUseCase(
			repos.issueRepo, c.queue, cfg.Triage.StaleAfter, cfg.Triage.SweepBatch, svcs.clock, log,
		),
	}
}
