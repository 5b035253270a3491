package ingest

import (
	"context"
	"fmt"

	"github.com/ternarybob/vestio/internal/models"
)

// RunListingScrape dispatches one listing scrape per source: the active
// listing that has waited longest (never-listed first). Each accepted
// dispatch gets a processing Status; a failed dispatch is only logged, so
// the listing stays eligible for the next run.
func (s *Service) RunListingScrape(ctx context.Context) error {
	listings, err := s.storage.ListingStorage().OldestPerSource(ctx)
	if err != nil {
		return fmt.Errorf("failed to select listings: %w", err)
	}

	if len(listings) == 0 {
		s.logger.Info().Msg("No active listings to scrape")
		return nil
	}

	dispatched := 0
	for _, listing := range listings {
		jobID, err := s.agent.SubmitScrape(ctx, listing.URL, models.PriorityLow, models.JobTypeListing)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("listing_id", listing.ID).
				Str("url", listing.URL).
				Msg("Failed to dispatch listing scrape, will retry next run")
			continue
		}

		status := models.NewStatus(models.IngestionTypeListing, jobID, listing.ID)
		if err := s.storage.StatusStorage().Create(ctx, status); err != nil {
			s.logger.Error().
				Err(err).
				Str("listing_id", listing.ID).
				Str("job_id", jobID).
				Msg("Failed to record listing dispatch status")
			continue
		}

		dispatched++
		s.logger.Debug().
			Str("listing_id", listing.ID).
			Str("job_id", jobID).
			Msg("Listing scrape dispatched")
	}

	s.logger.Info().
		Int("sources", len(listings)).
		Int("dispatched", dispatched).
		Msg("Listing scrape run finished")
	return nil
}
