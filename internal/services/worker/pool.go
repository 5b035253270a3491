package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
	"github.com/ternarybob/vestio/internal/services/scraper"
)

// Pool runs the agent's scrape workers. Each worker blocks on the
// priority queue, claims one job at a time, and writes the job's result
// and terminal status before asking for the next one. Priorities are
// encoded in the dequeue order, so one pool serves all three.
type Pool struct {
	queue    interfaces.JobQueue
	storage  interfaces.StorageManager
	registry *scraper.Registry
	config   *common.Config
	logger   arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a worker pool
func NewPool(queue interfaces.JobQueue, storage interfaces.StorageManager, registry *scraper.Registry, config *common.Config, logger arbor.ILogger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		queue:    queue,
		storage:  storage,
		registry: registry,
		config:   config,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutines
func (p *Pool) Start() error {
	concurrency := p.config.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	p.logger.Info().Int("concurrency", concurrency).Msg("Starting worker pool")

	for i := 0; i < concurrency; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return nil
}

// Stop cancels the workers and waits for in-flight jobs to finish
func (p *Pool) Stop() error {
	p.logger.Info().Msg("Stopping worker pool")
	p.cancel()
	p.wg.Wait()
	return nil
}

// worker is the main loop: dequeue, process, repeat
func (p *Pool) worker(workerID int) {
	defer p.wg.Done()

	p.logger.Debug().Int("worker_id", workerID).Msg("Worker started")

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug().Int("worker_id", workerID).Msg("Worker stopped")
			return
		default:
		}

		task, err := p.queue.Dequeue(p.ctx)
		if err != nil {
			if p.ctx.Err() != nil {
				p.logger.Debug().Int("worker_id", workerID).Msg("Worker stopped")
				return
			}
			p.logger.Warn().Err(err).Int("worker_id", workerID).Msg("Failed to dequeue task")
			continue
		}
		if task == nil {
			// Idle poll timeout; loop back to check for shutdown.
			continue
		}

		p.process(workerID, task)
	}
}

// process runs one job end to end: claim, execute, persist outcome.
// A panic inside a task body fails that job without taking the worker down.
func (p *Pool) process(workerID int, task *interfaces.ScrapeTask) {
	logger := p.logger.WithCorrelationId(task.JobID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("job_id", task.JobID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in scrape task")
			p.finishJob(task.JobID, nil, fmt.Errorf("panic: %v", r))
		}
	}()

	logger.Info().
		Int("worker_id", workerID).
		Str("job_id", task.JobID).
		Str("type_page", string(task.TypePage)).
		Str("url", task.WebpageURL).
		Msg("Job started")

	if err := p.storage.JobStorage().UpdateStatus(p.ctx, task.JobID, models.JobProcessing, ""); err != nil {
		// Stale reaper or a competing worker already owns the job.
		logger.Warn().Err(err).Str("job_id", task.JobID).Msg("Could not claim job, skipping")
		return
	}

	var result *models.JobResult
	var err error
	switch task.TypePage {
	case models.JobTypeListing:
		result, err = p.runListing(task)
	case models.JobTypeProduct:
		result, err = p.runProduct(task)
	default:
		err = fmt.Errorf("unknown type_page %q", task.TypePage)
	}

	p.finishJob(task.JobID, result, err)

	if err != nil {
		logger.Warn().Err(err).Str("job_id", task.JobID).Msg("Job failed")
	} else {
		logger.Info().Str("job_id", task.JobID).Msg("Job completed")
	}
}

// finishJob persists the JobResult and the job's terminal status. A result
// row is always written, failed jobs included, so the control plane can
// fetch the error without joining on the job record.
func (p *Pool) finishJob(jobID string, result *models.JobResult, taskErr error) {
	if taskErr != nil {
		result = models.NewFailedJobResult(jobID, taskErr.Error())
	}

	if err := p.storage.JobResultStorage().Create(p.ctx, result); err != nil {
		p.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to persist job result")
	}

	status := models.JobCompleted
	errorMessage := ""
	if taskErr != nil {
		status = models.JobFailed
		errorMessage = taskErr.Error()
	}

	if err := p.storage.JobStorage().UpdateStatus(p.ctx, jobID, status, errorMessage); err != nil {
		p.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to update job status")
	}
}
