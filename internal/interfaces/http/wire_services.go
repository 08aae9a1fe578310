package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civiclens/civiclens/internal/application/issue/services"
	"github.com/civiclens/civiclens/internal/infrastructure/config"
	"github.com/civiclens/civiclens/internal/infrastructure/exif"
	"github.com/civiclens/civiclens/internal/infrastructure/geocoding"
	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/infrastructure/oracle"
	"github.com/civiclens/civiclens/internal/infrastructure/queue"
	"github.com/civiclens/civiclens/internal/infrastructure/ratelimit"
	"github.com/civiclens/civiclens/internal/infrastructure/storage"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

const memoryQueueCapacity = 1024

// pipelineServices holds the issue pipeline services shared by use cases and workers.
type pipelineServices struct {
	clock        services.Clock
	gateway      *services.OracleGateway
	stateMachine *services.StateMachine
	provenance   *services.ProvenanceVerifier
	duplicates   *services.DuplicateDetector
	triage       *services.TriagePipeline
	resolution   *services.ResolutionVerifier
	geocoder     *geocoding.OpenCageClient
}

// initInfrastructure sets up Redis (when enabled), blob storage, the triage
// queue, the rate limiter backend and the repositories.
func (c *Container) initInfrastructure() error {
	cfg := c.cfg
	log := c.log

	c.metrics = metrics.New()

	if cfg.Redis.Enabled {
		client, err := initRedis(cfg, log)
		if err != nil {
			return err
		}
		c.redis = client
		c.queue = queue.NewRedisQueue(client)
		c.limiter = ratelimit.NewRedisRateLimiter(client)
	} else {
		log.Infow("redis disabled, using in-process triage queue and rate limiter")
		c.queue = queue.NewMemoryQueue(memoryQueueCapacity)
		c.limiter = ratelimit.NewMemoryRateLimiter()
	}

	blobs, err := storage.NewLocalBlobStore(cfg.Storage, &http.Client{})
	if err != nil {
		return err
	}
	c.blobs = blobs

	c.repos = newRepositories(c.db, log)
	return nil
}

// initRedis creates and tests the Redis client connection.
func initRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("Redis connection established successfully", "addr", cfg.Redis.GetAddr())

	return redisClient, nil
}

func (c *Container) initServices() {
	cfg := c.cfg
	log := c.log
	clock := services.Clock(nil)

	client := oracle.NewClient(cfg.Oracle, &http.Client{}, log)
	gateway := services.NewOracleGateway(client, cfg.Oracle.Temperature, c.metrics)
	sm := services.NewStateMachine(c.repos.issueRepo, c.repos.ledgerRepo, c.repos.txManager, c.metrics, clock, log)

	c.svcs = &pipelineServices{
		clock:        clock,
		gateway:      gateway,
		stateMachine: sm,
		provenance:   services.NewProvenanceVerifier(exif.NewExtractor(time.UTC), cfg.Intake.Provenance, clock, c.metrics),
		duplicates:   services.NewDuplicateDetector(c.repos.issueRepo, c.blobs, gateway, cfg.Intake.Duplicate, log),
		triage:       services.NewTriagePipeline(sm, c.repos.issueRepo, c.blobs, gateway, c.metrics, log),
		resolution: services.NewResolutionVerifier(
			sm, c.repos.issueRepo, c.repos.creditRepo, c.blobs, gateway,
			cfg.Reward.ResolutionAmount, clock, c.metrics, log,
		),
		geocoder: geocoding.NewOpenCageClient(cfg.Geocoding, &http.Client{}, log),
	}
}

// triageJobTimeout leaves room for the image fetch plus one oracle round trip.
func triageJobTimeout(cfg *config.Config) time.Duration {
	t := cfg.Oracle.Timeout + cfg.Storage.FetchTimeout
	if t <= 0 {
		return 60 * time.Second
	}
	return t + 10*time.Second
}
