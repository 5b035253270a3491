package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/vestio/internal/models"
)

// RunStatusUpdate reconciles processing statuses against the agent. Jobs
// that finished get their results pulled into the ingestor stores; jobs
// that failed close their status. Anything still running, and anything the
// agent could not be asked about, is left alone for the next cycle.
func (s *Service) RunStatusUpdate(ctx context.Context) error {
	statuses, err := s.storage.StatusStorage().ListProcessing(ctx)
	if err != nil {
		return fmt.Errorf("failed to list processing statuses: %w", err)
	}

	if len(statuses) == 0 {
		s.logger.Info().Msg("No statuses awaiting reconciliation")
		return nil
	}

	completed := 0
	failed := 0
	for _, status := range statuses {
		job, err := s.agent.JobStatus(ctx, status.JobID)
		if err != nil {
			s.logger.Warn().Err(err).Str("job_id", status.JobID).Msg("Failed to query agent for job status")
			continue
		}

		switch job.Status {
		case models.JobQueued, models.JobProcessing:
			// Still running; check again next cycle.
		case models.JobFailed:
			s.logger.Warn().
				Str("job_id", status.JobID).
				Str("error", job.ErrorMessage).
				Msg("Agent job failed")
			if err := s.storage.StatusStorage().MarkFailed(ctx, status.ID); err != nil {
				s.logger.Error().Err(err).Str("status_id", status.ID).Msg("Failed to close status")
				continue
			}
			failed++
		case models.JobCompleted:
			if err := s.resolveCompleted(ctx, status); err != nil {
				s.logger.Error().Err(err).Str("job_id", status.JobID).Msg("Failed to apply job result")
				if err := s.storage.StatusStorage().MarkFailed(ctx, status.ID); err != nil {
					s.logger.Error().Err(err).Str("status_id", status.ID).Msg("Failed to close status")
				}
				failed++
				continue
			}
			if err := s.storage.StatusStorage().MarkCompleted(ctx, status.ID); err != nil {
				s.logger.Error().Err(err).Str("status_id", status.ID).Msg("Failed to close status")
				continue
			}
			completed++
		}
	}

	s.logger.Info().
		Int("checked", len(statuses)).
		Int("completed", completed).
		Int("failed", failed).
		Msg("Status update run finished")
	return nil
}

// resolveCompleted fetches the result of a finished job and folds it into
// the ingestor stores according to the status's ingestion type.
func (s *Service) resolveCompleted(ctx context.Context, status *models.Status) error {
	result, err := s.agent.JobResult(ctx, status.JobID)
	if err != nil {
		return fmt.Errorf("failed to fetch job result: %w", err)
	}

	switch status.IngestionType {
	case models.IngestionTypeListing:
		return s.applyListingResult(ctx, status, result)
	case models.IngestionTypeProduct:
		return s.applyProductResult(ctx, status, result)
	default:
		return fmt.Errorf("unknown ingestion type %q on status %s", status.IngestionType, status.ID)
	}
}

// applyListingResult records newly discovered product URLs. URLs already
// known are skipped, so re-applying the same result changes nothing. The
// listing's last_listed is stamped once the payload is absorbed.
func (s *Service) applyListingResult(ctx context.Context, status *models.Status, result *models.JobResult) error {
	if result.Listing == nil {
		return fmt.Errorf("job %s result has no listing payload", status.JobID)
	}

	listing, err := s.storage.ListingStorage().Get(ctx, status.EntityID)
	if err != nil {
		return fmt.Errorf("failed to load listing %s: %w", status.EntityID, err)
	}

	discovered := 0
	for _, item := range result.Listing.Items {
		existing, err := s.storage.ProductURLStorage().GetByURL(ctx, item.URL)
		if err != nil {
			return fmt.Errorf("failed to check url %s: %w", item.URL, err)
		}
		if existing != nil {
			continue
		}

		url := models.NewProductURL(item.URL, listing.SourceID, listing.ID, item.PageRank)
		if err := s.storage.ProductURLStorage().Create(ctx, url); err != nil {
			return fmt.Errorf("failed to store url %s: %w", item.URL, err)
		}
		discovered++
	}

	if err := s.storage.ListingStorage().SetLastListed(ctx, listing.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to stamp listing %s: %w", listing.ID, err)
	}

	s.logger.Info().
		Str("listing_id", listing.ID).
		Int("items", len(result.Listing.Items)).
		Int("discovered", discovered).
		Msg("Applied listing result")
	return nil
}

// applyProductResult stores a scraped product. A product already known by
// its source-stable ID takes an additive update; otherwise the product is
// linked back to its discovering URL and inserted fresh.
func (s *Service) applyProductResult(ctx context.Context, status *models.Status, result *models.JobResult) error {
	if result.Product == nil {
		return fmt.Errorf("job %s result has no product payload", status.JobID)
	}
	incoming := result.Product

	existing, err := s.storage.ProductStorage().Get(ctx, incoming.ID)
	if err != nil {
		return fmt.Errorf("failed to load product %s: %w", incoming.ID, err)
	}

	if existing != nil {
		changes := existing.ApplyAdditive(incoming)
		if len(changes) == 0 {
			s.logger.Debug().Str("product_id", incoming.ID).Msg("Scrape added nothing new")
			return nil
		}
		if err := s.storage.ProductStorage().ApplyAdditive(ctx, existing.ID, changes); err != nil {
			return fmt.Errorf("failed to update product %s: %w", existing.ID, err)
		}
		s.logger.Info().
			Str("product_id", existing.ID).
			Int("fields", len(changes)).
			Msg("Applied additive product update")
		return nil
	}

	url, err := s.storage.ProductURLStorage().GetByURL(ctx, incoming.URL)
	if err != nil {
		return fmt.Errorf("failed to resolve url %s: %w", incoming.URL, err)
	}
	if url == nil {
		return fmt.Errorf("product %s has no discovering url %s", incoming.ID, incoming.URL)
	}

	incoming.URLID = url.ID
	incoming.PageIndex = url.PageIndex
	incoming.Processed = false
	if err := s.storage.ProductStorage().Upsert(ctx, incoming); err != nil {
		return fmt.Errorf("failed to store product %s: %w", incoming.ID, err)
	}

	s.logger.Info().
		Str("product_id", incoming.ID).
		Str("url_id", url.ID).
		Msg("Stored new product")
	return nil
}
