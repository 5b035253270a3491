package worker

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vestio/internal/common"
	"github.com/ternarybob/vestio/internal/interfaces"
)

const staleJobReason = "job processing timed out"

// Reaper fails jobs stuck in processing, typically after a worker crash
// or a browser that never came back. Without it, a lost worker would leave
// its job processing forever and the control plane would poll it for good.
type Reaper struct {
	storage  interfaces.StorageManager
	interval time.Duration
	timeout  time.Duration
	logger   arbor.ILogger
	ticker   *time.Ticker
	done     chan struct{}
}

// NewReaper creates a stale job reaper from the worker config
func NewReaper(storage interfaces.StorageManager, config *common.WorkerConfig, logger arbor.ILogger) *Reaper {
	return &Reaper{
		storage:  storage,
		interval: common.Duration(config.StaleCheckInterval, 5*time.Minute),
		timeout:  common.Duration(config.StaleJobTimeout, 30*time.Minute),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the reaper loop
func (r *Reaper) Start() {
	r.ticker = time.NewTicker(r.interval)
	common.SafeGo(r.logger, "staleJobReaper", r.loop)
	r.logger.Info().
		Dur("interval", r.interval).
		Dur("timeout", r.timeout).
		Msg("Stale job reaper started")
}

// Stop halts the reaper loop
func (r *Reaper) Stop() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	close(r.done)
	r.logger.Info().Msg("Stale job reaper stopped")
}

func (r *Reaper) loop() {
	for {
		select {
		case <-r.done:
			return
		case <-r.ticker.C:
			r.reap()
		}
	}
}

func (r *Reaper) reap() {
	cutoff := time.Now().UTC().Add(-r.timeout)
	count, err := r.storage.JobStorage().MarkStale(context.Background(), cutoff, staleJobReason)
	if err != nil {
		r.logger.Error().Err(err).Msg("Stale job sweep failed")
		return
	}
	if count > 0 {
		r.logger.Warn().Int64("count", count).Msg("Marked stale jobs as failed")
	}
}
