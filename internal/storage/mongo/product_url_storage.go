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

// ProductURLStorage implements product URL persistence on MongoDB
type ProductURLStorage struct {
	db     *MongoDB
	logger arbor.ILogger
}

// NewProductURLStorage creates a new ProductURLStorage
func NewProductURLStorage(db *MongoDB, logger arbor.ILogger) interfaces.ProductURLStorage {
	return &ProductURLStorage{db: db, logger: logger}
}

func (s *ProductURLStorage) collection() *mongo.Collection {
	return s.db.Collection(productURLsCollection)
}

// Create inserts a new product URL
func (s *ProductURLStorage) Create(ctx context.Context, url *models.ProductURL) error {
	if _, err := s.collection().InsertOne(ctx, url); err != nil {
		return fmt.Errorf("failed to create product url: %w", err)
	}
	s.logger.Debug().Str("url_id", url.ID).Str("url", url.URL).Msg("Product URL created")
	return nil
}

// Get retrieves a product URL by ID
func (s *ProductURLStorage) Get(ctx context.Context, id string) (*models.ProductURL, error) {
	var url models.ProductURL
	err := s.collection().FindOne(ctx, bson.M{"id": id}).Decode(&url)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("product url not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product url: %w", err)
	}
	return &url, nil
}

// GetByURL looks up a product URL by its URL string. Returns nil (no
// error) when the URL has not been discovered; callers use this as an
// existence probe during reconciliation.
func (s *ProductURLStorage) GetByURL(ctx context.Context, rawURL string) (*models.ProductURL, error) {
	var url models.ProductURL
	err := s.collection().FindOne(ctx, bson.M{"url": rawURL}).Decode(&url)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product url by url: %w", err)
	}
	return &url, nil
}

// Update replaces an existing product URL
func (s *ProductURLStorage) Update(ctx context.Context, url *models.ProductURL) error {
	result, err := s.collection().ReplaceOne(ctx, bson.M{"id": url.ID}, url)
	if err != nil {
		return fmt.Errorf("failed to update product url: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("product url not found: %s", url.ID)
	}
	return nil
}

// ListUnbatched returns product URLs not yet assigned to a batch, oldest first
func (s *ProductURLStorage) ListUnbatched(ctx context.Context) ([]*models.ProductURL, error) {
	cursor, err := s.collection().Find(ctx, bson.M{"batched": false},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list unbatched product urls: %w", err)
	}
	defer cursor.Close(ctx)

	var urls []*models.ProductURL
	if err := cursor.All(ctx, &urls); err != nil {
		return nil, fmt.Errorf("failed to decode product urls: %w", err)
	}
	return urls, nil
}

// MarkBatched records a permanent batch assignment
func (s *ProductURLStorage) MarkBatched(ctx context.Context, id, batchID string) error {
	result, err := s.collection().UpdateOne(ctx, bson.M{"id": id}, bson.M{
		"$set": bson.M{"batched": true, "batch_id": batchID},
	})
	if err != nil {
		return fmt.Errorf("failed to mark product url batched: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("product url not found: %s", id)
	}
	return nil
}

// Count returns the number of product URLs
func (s *ProductURLStorage) Count(ctx context.Context) (int64, error) {
	count, err := s.collection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count product urls: %w", err)
	}
	return count, nil
}
