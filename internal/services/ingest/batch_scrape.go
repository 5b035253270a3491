package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/vestio/internal/models"
)

// RunBatchScrape dispatches product-detail scrapes for the least recently
// processed batches. Never-processed batches sort first. Each URL in a
// selected batch becomes one high-priority agent job with a processing
// Status row; the batch's last_processed is stamped afterwards so the next
// run rotates to other batches.
func (s *Service) RunBatchScrape(ctx context.Context) error {
	limit := s.config.Ingest.MaxBatchesToProcess
	if limit <= 0 {
		limit = 5
	}

	batches, err := s.storage.BatchStorage().OldestUnprocessed(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load batches: %w", err)
	}

	if len(batches) == 0 {
		s.logger.Info().Msg("No batches to process")
		return nil
	}

	dispatched := 0
	for _, batch := range batches {
		for _, urlID := range batch.URLs {
			url, err := s.storage.ProductURLStorage().Get(ctx, urlID)
			if err != nil {
				s.logger.Warn().Err(err).Str("url_id", urlID).Msg("Failed to load product url")
				continue
			}
			if url == nil {
				s.logger.Warn().Str("url_id", urlID).Str("batch_id", batch.ID).Msg("Batch references missing product url")
				continue
			}

			jobID, err := s.agent.SubmitScrape(ctx, url.URL, models.PriorityHigh, models.JobTypeProduct)
			if err != nil {
				s.logger.Warn().Err(err).Str("url", url.URL).Msg("Failed to submit product scrape")
				continue
			}

			status := models.NewStatus(models.IngestionTypeProduct, jobID, url.ID)
			if err := s.storage.StatusStorage().Create(ctx, status); err != nil {
				s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to record status for product scrape")
				continue
			}
			dispatched++
		}

		now := time.Now().UTC()
		if err := s.storage.BatchStorage().SetLastProcessed(ctx, batch.ID, now); err != nil {
			s.logger.Warn().Err(err).Str("batch_id", batch.ID).Msg("Failed to stamp batch last_processed")
		}
	}

	s.logger.Info().
		Int("batches", len(batches)).
		Int("dispatched", dispatched).
		Msg("Batch scrape run finished")
	return nil
}
