package ingest

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/interfaces"
)

// Scheduler task names for the four pipeline stages.
const (
	TaskListingScrape = "listing_scrape"
	TaskBatchCreate   = "batch_create"
	TaskBatchScrape   = "batch_scrape"
	TaskStatusUpdate  = "status_update"
)

// Service runs the four pipeline tasks that move products from listing
// pages into the product store: listing scrape, batch create, batch
// scrape, and status update. Every task is idempotent and applies a
// log-and-continue policy per entity, so one bad listing or URL never
// blocks the rest of a run.
type Service struct {
	storage interfaces.StorageManager
	agent   interfaces.AgentClient
	config  *common.Config
	logger  arbor.ILogger
}

// NewService creates the ingest pipeline service
func NewService(storage interfaces.StorageManager, agent interfaces.AgentClient, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		agent:   agent,
		config:  config,
		logger:  logger,
	}
}
