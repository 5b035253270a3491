package mongo

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

// SourceStorage implements source persistence on MongoDB
type SourceStorage struct {
	db     *MongoDB
	logger arbor.ILogger
}

// NewSourceStorage creates a new SourceStorage
func NewSourceStorage(db *MongoDB, logger arbor.ILogger) interfaces.SourceStorage {
	return &SourceStorage{db: db, logger: logger}
}

func (s *SourceStorage) collection() *mongo.Collection {
	return s.db.Collection(sourcesCollection)
}

// Create inserts a new source
func (s *SourceStorage) Create(ctx context.Context, source *models.Source) error {
	if _, err := s.collection().InsertOne(ctx, source); err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}
	s.logger.Debug().Str("source_id", source.ID).Str("name", source.Name).Msg("Source created")
	return nil
}

// Get retrieves a source by ID
func (s *SourceStorage) Get(ctx context.Context, id string) (*models.Source, error) {
	var source models.Source
	err := s.collection().FindOne(ctx, bson.M{"id": id}).Decode(&source)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("source not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return &source, nil
}

// List returns all sources ordered by creation time
func (s *SourceStorage) List(ctx context.Context) ([]*models.Source, error) {
	cursor, err := s.collection().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer cursor.Close(ctx)

	var sources []*models.Source
	if err := cursor.All(ctx, &sources); err != nil {
		return nil, fmt.Errorf("failed to decode sources: %w", err)
	}
	return sources, nil
}

// Update replaces an existing source
func (s *SourceStorage) Update(ctx context.Context, source *models.Source) error {
	result, err := s.collection().ReplaceOne(ctx, bson.M{"id": source.ID}, source)
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("source not found: %s", source.ID)
	}
	return nil
}

// Delete removes a source by ID
func (s *SourceStorage) Delete(ctx context.Context, id string) error {
	result, err := s.collection().DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("source not found: %s", id)
	}
	s.logger.Debug().Str("source_id", id).Msg("Source deleted")
	return nil
}

// AddListing appends a listing ID to the source's set and bumps the count
func (s *SourceStorage) AddListing(ctx context.Context, sourceID, listingID string) error {
	result, err := s.collection().UpdateOne(ctx, bson.M{"id": sourceID}, bson.M{
		"$push": bson.M{"listings": listingID},
		"$inc":  bson.M{"listing_count": 1},
	})
	if err != nil {
		return fmt.Errorf("failed to add listing to source: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("source not found: %s", sourceID)
	}
	return nil
}

// RemoveListing removes a listing ID from the source's set and drops the count
func (s *SourceStorage) RemoveListing(ctx context.Context, sourceID, listingID string) error {
	result, err := s.collection().UpdateOne(ctx, bson.M{"id": sourceID}, bson.M{
		"$pull": bson.M{"listings": listingID},
		"$inc":  bson.M{"listing_count": -1},
	})
	if err != nil {
		return fmt.Errorf("failed to remove listing from source: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("source not found: %s", sourceID)
	}
	return nil
}

// Count returns the number of sources
func (s *SourceStorage) Count(ctx context.Context) (int64, error) {
	count, err := s.collection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return count, nil
}
