// -----------------------------------------------------------------------
// Last Modified: Friday, 21st August 2026 10:02:33 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

// Package app wires each vestio binary's dependencies together.
package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/handlers"
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/services/agentclient"
	"github.com/ternarybob/vestio/internal/services/ingest"
	"github.com/ternarybob/vestio/internal/services/scheduler"
	"github.com/ternarybob/vestio/internal/storage/mongo"
)

// Ingestor holds the control-plane components: the durable store, the
// agent client, the four pipeline tasks, and the admin API handlers.
type Ingestor struct {
	Config           *common.Config
	Logger           arbor.ILogger
	StorageManager   interfaces.StorageManager
	AgentClient      interfaces.AgentClient
	IngestService    *ingest.Service
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	SourcesHandler   *handlers.SourcesHandler
	ListingsHandler  *handlers.ListingsHandler
	SchedulerHandler *handlers.SchedulerHandler
	DashboardHandler *handlers.DashboardHandler
}

// NewIngestor initializes the ingestor with all dependencies
func NewIngestor(cfg *common.Config, logger arbor.ILogger) (*Ingestor, error) {
	a := &Ingestor{
		Config: cfg,
		Logger: logger,
	}

	if err := cfg.ValidateSchedules(); err != nil {
		return nil, fmt.Errorf("invalid scheduler configuration: %w", err)
	}

	storageManager, err := mongo.NewManager(context.Background(), logger, &cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = storageManager

	if err := a.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.initHandlers()

	logger.Info().
		Str("agent_url", cfg.Agent.APIURL).
		Str("timezone", cfg.Scheduler.Timezone).
		Msg("Ingestor initialization complete")

	return a, nil
}

// initServices initializes the pipeline services and registers the four
// scheduled tasks.
func (a *Ingestor) initServices() error {
	a.AgentClient = agentclient.New(&a.Config.Agent, a.Logger)
	a.IngestService = ingest.NewService(a.StorageManager, a.AgentClient, a.Config, a.Logger)
	a.SchedulerService = scheduler.NewService(a.Config, a.Logger)

	tasks := []struct {
		name        string
		schedule    string
		description string
		handler     func(ctx context.Context) error
	}{
		{ingest.TaskListingScrape, a.Config.Scheduler.ListingScrape,
			"Dispatch listing walks, least recently listed page per source first",
			a.IngestService.RunListingScrape},
		{ingest.TaskBatchCreate, a.Config.Scheduler.BatchCreate,
			"Sweep unbatched product urls into batches",
			a.IngestService.RunBatchCreate},
		{ingest.TaskBatchScrape, a.Config.Scheduler.BatchScrape,
			"Dispatch product scrapes for the oldest batches",
			a.IngestService.RunBatchScrape},
		{ingest.TaskStatusUpdate, a.Config.Scheduler.StatusUpdate,
			"Reconcile outstanding agent jobs into the product stores",
			a.IngestService.RunStatusUpdate},
	}

	for _, task := range tasks {
		handler := task.handler
		err := a.SchedulerService.RegisterTask(task.name, task.schedule, task.description, func() error {
			return handler(context.Background())
		})
		if err != nil {
			return fmt.Errorf("failed to register task %s: %w", task.name, err)
		}
	}

	return nil
}

// initHandlers initializes the admin API handlers
func (a *Ingestor) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.SourcesHandler = handlers.NewSourcesHandler(a.StorageManager, a.Logger)
	a.ListingsHandler = handlers.NewListingsHandler(a.StorageManager, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, a.Logger)
	a.DashboardHandler = handlers.NewDashboardHandler(a.StorageManager, a.Logger)
}

// Start begins the scheduled pipeline
func (a *Ingestor) Start() error {
	return a.SchedulerService.Start()
}

// Close closes all ingestor resources
func (a *Ingestor) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
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
