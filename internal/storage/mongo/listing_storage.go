package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ternarybob/vestio/internal/interfaces"
	"github.com/ternarybob/vestio/internal/models"
)

// ListingStorage implements listing persistence on MongoDB
type ListingStorage struct {
	db     *MongoDB
	logger arbor.ILogger
}

// NewListingStorage creates a new ListingStorage
func NewListingStorage(db *MongoDB, logger arbor.ILogger) interfaces.ListingStorage {
	return &ListingStorage{db: db, logger: logger}
}

func (s *ListingStorage) collection() *mongo.Collection {
	return s.db.Collection(listingsCollection)
}

// Create inserts a new listing
func (s *ListingStorage) Create(ctx context.Context, listing *models.Listing) error {
	if _, err := s.collection().InsertOne(ctx, listing); err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	s.logger.Debug().Str("listing_id", listing.ID).Str("source_id", listing.SourceID).Msg("Listing created")
	return nil
}

// Get retrieves a listing by ID
func (s *ListingStorage) Get(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	err := s.collection().FindOne(ctx, bson.M{"id": id}).Decode(&listing)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("listing not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

// List returns all listings ordered by creation time
func (s *ListingStorage) List(ctx context.Context) ([]*models.Listing, error) {
	return s.find(ctx, bson.M{})
}

// ListBySource returns the listings owned by one source
func (s *ListingStorage) ListBySource(ctx context.Context, sourceID string) ([]*models.Listing, error) {
	return s.find(ctx, bson.M{"source_id": sourceID})
}

func (s *ListingStorage) find(ctx context.Context, filter bson.M) ([]*models.Listing, error) {
	cursor, err := s.collection().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []*models.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

// Update replaces an existing listing
func (s *ListingStorage) Update(ctx context.Context, listing *models.Listing) error {
	result, err := s.collection().ReplaceOne(ctx, bson.M{"id": listing.ID}, listing)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("listing not found: %s", listing.ID)
	}
	return nil
}

// Delete removes a listing by ID
func (s *ListingStorage) Delete(ctx context.Context, id string) error {
	result, err := s.collection().DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("listing not found: %s", id)
	}
	s.logger.Debug().Str("listing_id", id).Msg("Listing deleted")
	return nil
}

// OldestPerSource returns, for each source, the active listing that has
// waited longest for a listing scrape. A nil last_listed sorts before any
// timestamp, so never-scraped listings win.
func (s *ListingStorage) OldestPerSource(ctx context.Context) ([]*models.Listing, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "active", Value: true}}}},
		{{Key: "$sort", Value: bson.D{{Key: "source_id", Value: 1}, {Key: "last_listed", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$source_id"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$doc"}}}},
	}

	cursor, err := s.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate oldest listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []*models.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode oldest listings: %w", err)
	}
	return listings, nil
}

// SetLastListed records when a listing scrape last completed
func (s *ListingStorage) SetLastListed(ctx context.Context, id string, ts time.Time) error {
	result, err := s.collection().UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$set": bson.M{"last_listed": ts},
	})
	if err != nil {
		return fmt.Errorf("failed to set last_listed: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("listing not found: %s", id)
	}
	return nil
}

// Count returns the number of listings
func (s *ListingStorage) Count(ctx context.Context) (int64, error) {
	count, err := s.collection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}
