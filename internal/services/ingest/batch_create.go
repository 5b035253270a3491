package ingest

import (
	"context"
	"fmt"

	"github.com/ternarybob/vestio/internal/models"
)

// RunBatchCreate sweeps unbatched product URLs into batches. The oldest
// open batch is topped up to capacity first; whatever remains is chunked
// into fresh batches of at most max_batch_size. Rerunning with no new
// URLs is a no-op, so the task is safe to fire on any schedule.
func (s *Service) RunBatchCreate(ctx context.Context) error {
	urls, err := s.storage.ProductURLStorage().ListUnbatched(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unbatched urls: %w", err)
	}

	if len(urls) == 0 {
		s.logger.Info().Msg("No unbatched product urls")
		return nil
	}

	maxSize := s.config.Ingest.MaxBatchSize
	if maxSize <= 0 {
		maxSize = 100
	}

	idx := 0
	filled := 0

	// Top up the oldest batch that still has room.
	open, err := s.storage.BatchStorage().FindOpenBatch(ctx, maxSize)
	if err != nil {
		return fmt.Errorf("failed to find open batch: %w", err)
	}
	if open != nil {
		remaining := open.Remaining(maxSize)
		for idx < len(urls) && remaining > 0 {
			url := urls[idx]
			idx++
			if err := s.assign(ctx, url, open.ID); err != nil {
				s.logger.Warn().Err(err).Str("url_id", url.ID).Msg("Failed to assign url to open batch")
				continue
			}
			remaining--
			filled++
		}
		if filled > 0 {
			s.logger.Debug().
				Str("batch_id", open.ID).
				Int("added", filled).
				Msg("Topped up open batch")
		}
	}

	// Chunk the rest into new batches.
	created := 0
	for idx < len(urls) {
		end := idx + maxSize
		if end > len(urls) {
			end = len(urls)
		}
		chunk := urls[idx:end]
		idx = end

		ids := make([]string, 0, len(chunk))
		for _, url := range chunk {
			ids = append(ids, url.ID)
		}

		batch := models.NewBatch(ids)
		if err := s.storage.BatchStorage().Create(ctx, batch); err != nil {
			return fmt.Errorf("failed to create batch: %w", err)
		}

		for _, url := range chunk {
			if err := s.storage.ProductURLStorage().MarkBatched(ctx, url.ID, batch.ID); err != nil {
				s.logger.Warn().Err(err).Str("url_id", url.ID).Msg("Failed to mark url batched")
			}
		}
		created++
	}

	s.logger.Info().
		Int("urls", len(urls)).
		Int("topped_up", filled).
		Int("batches_created", created).
		Msg("Batch create run finished")
	return nil
}

// assign adds one URL to an existing batch and marks the URL batched.
func (s *Service) assign(ctx context.Context, url *models.ProductURL, batchID string) error {
	if err := s.storage.BatchStorage().AddURL(ctx, batchID, url.ID); err != nil {
		return err
	}
	return s.storage.ProductURLStorage().MarkBatched(ctx, url.ID, batchID)
}
