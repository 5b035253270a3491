package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/handlers"
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/queue"
	"github.com/ternarybob/vestio/internal/services/scraper"
	"github.com/ternarybob/vestio/internal/services/worker"
	"github.com/ternarybob/vestio/internal/storage/mongo"
)

// Agent holds the job-plane components: the durable store, the Redis
// queue, the scraper cache, the worker pool, and the scrape API handlers.
type Agent struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager
	Queue          interfaces.JobQueue
	ScraperCache   *scraper.Cache
	Registry       *scraper.Registry
	WorkerPool     *worker.Pool
	Reaper         *worker.Reaper

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	ScrapeHandler *handlers.ScrapeHandler
}

// NewAgent initializes the agent with all dependencies
func NewAgent(cfg *common.Config, logger arbor.ILogger) (*Agent, error) {
	a := &Agent{
		Config: cfg,
		Logger: logger,
	}

	ctx := context.Background()

	storageManager, err := mongo.NewManager(ctx, logger, &cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = storageManager

	jobQueue, err := queue.NewRedisQueue(ctx, logger, &cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize job queue: %w", err)
	}
	a.Queue = jobQueue

	a.ScraperCache = scraper.NewCache(cfg.Scraper.CacheMaxSize, logger)
	a.Registry = scraper.NewRegistry(&cfg.Scraper, a.ScraperCache, logger)
	a.WorkerPool = worker.NewPool(a.Queue, a.StorageManager, a.Registry, cfg, logger)
	a.Reaper = worker.NewReaper(a.StorageManager, &cfg.Worker, logger)

	a.APIHandler = handlers.NewAPIHandler()
	a.ScrapeHandler = handlers.NewScrapeHandler(a.StorageManager, a.Queue, logger)

	logger.Info().
		Int("concurrency", cfg.Worker.Concurrency).
		Int("cache_max_size", cfg.Scraper.CacheMaxSize).
		Msg("Agent initialization complete")

	return a, nil
}

// Start launches the worker pool and the stale job reaper
func (a *Agent) Start() error {
	if err := a.WorkerPool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	a.Reaper.Start()
	return nil
}

// Close closes all agent resources. Workers drain first so no scraper is
// checked out when the cache flushes its browsers.
func (a *Agent) Close() error {
	if a.WorkerPool != nil {
		if err := a.WorkerPool.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop worker pool")
		}
	}

	if a.Reaper != nil {
		a.Reaper.Stop()
	}

	if a.Registry != nil {
		a.Registry.Flush()
		a.Logger.Info().Msg("Scraper cache flushed")
	}

	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close job queue")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
