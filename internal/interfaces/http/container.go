package http

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/civiclens/civiclens/internal/infrastructure/auth"
	"github.com/civiclens/civiclens/internal/infrastructure/config"
	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/infrastructure/queue"
	"github.com/civiclens/civiclens/internal/infrastructure/ratelimit"
	"github.com/civiclens/civiclens/internal/infrastructure/scheduler"
	"github.com/civiclens/civiclens/internal/infrastructure/storage"
	"github.com/civiclens/civiclens/internal/interfaces/http/middleware"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

// Container holds all infrastructure components, repositories, use cases, handlers,
// and background services. It wires everything together and owns Shutdown().
type Container struct {
	// Core infrastructure
	engine  *gin.Engine
	db      *gorm.DB
	cfg     *config.Config
	log     logger.Interface
	redis   *redis.Client
	metrics *metrics.Metrics

	// Storage, queue and limiter backends
	blobs   *storage.LocalBlobStore
	queue   queue.TriageQueue
	limiter ratelimit.RateLimiter

	repos *repositories
	svcs  *pipelineServices
	ucs   *allUseCases
	hdlrs *allHandlers

	// Middlewares
	jwtSvc               *auth.JWTService
	authMiddleware       *middleware.AuthMiddleware
	permissionMiddleware *middleware.PermissionMiddleware
	rateLimiter          *middleware.RateLimiter

	// Background services
	worker           *queue.Worker
	schedulerManager *scheduler.SchedulerManager
	workerCancel     context.CancelFunc
}

// NewContainer creates a Container with every dependency wired together.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	// Section 1: Infrastructure - Redis, storage, queue, repositories
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Pipeline services - state machine, provenance, duplicates, triage, resolution
	c.initServices()

	// Section 3: Use cases
	c.initUseCases()

	// Section 4: Handlers and middlewares
	if err := c.initHandlers(); err != nil {
		return nil, err
	}

	return c, nil
}

// StartBackground starts the triage workers and the stale sweep. The server
// calls it when triage.inline_worker is set; the worker command always does.
func (c *Container) StartBackground(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.workerCancel = cancel

	c.worker = queue.NewWorker(c.queue, c.svcs.triage.Run, queue.WorkerConfig{
		Concurrency: c.cfg.Triage.Concurrency,
		MaxAttempts: c.cfg.Triage.MaxAttempts,
		JobTimeout:  triageJobTimeout(c.cfg),
	}, c.log, c.metrics)
	c.worker.Start(ctx)

	sm, err := scheduler.NewSchedulerManager(c.log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := sm.RegisterTriageSweep(c.ucs.sweepStaleTriageUC, c.cfg.Triage.SweepInterval); err != nil {
		return fmt.Errorf("failed to register triage sweep: %w", err)
	}
	sm.Start()
	c.schedulerManager = sm

	c.log.Infow("triage workers started",
		"concurrency", c.cfg.Triage.Concurrency,
		"sweep_interval", c.cfg.Triage.SweepInterval.String(),
	)
	return nil
}

// Shutdown stops background work before closing the queue and Redis.
func (c *Container) Shutdown() {
	if c.schedulerManager != nil {
		if err := c.schedulerManager.Stop(); err != nil {
			c.log.Errorw("failed to stop scheduler", "error", err)
		}
	}

	if c.workerCancel != nil {
		c.workerCancel()
	}
	if c.worker != nil {
		c.worker.Stop()
	}

	if c.queue != nil {
		if err := c.queue.Close(); err != nil {
			c.log.Warnw("failed to close triage queue", "error", err)
		}
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis client", "error", err)
		}
	}
}

// mediaPrefix returns the URL path under which stored uploads are served.
func mediaPrefix(publicBaseURL string) string {
	u, err := url.Parse(publicBaseURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/media"
	}
	return "/" + strings.Trim(u.Path, "/")
}
