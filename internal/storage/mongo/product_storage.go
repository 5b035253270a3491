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

// ProductStorage implements product persistence on MongoDB
type ProductStorage struct {
	db     *MongoDB
	logger arbor.ILogger
}

// NewProductStorage creates a new ProductStorage
func NewProductStorage(db *MongoDB, logger arbor.ILogger) interfaces.ProductStorage {
	return &ProductStorage{db: db, logger: logger}
}

func (s *ProductStorage) collection() *mongo.Collection {
	return s.db.Collection(productsCollection)
}

// Upsert inserts or replaces a product by its source-stable ID
func (s *ProductStorage) Upsert(ctx context.Context, product *models.Product) error {
	_, err := s.collection().ReplaceOne(ctx, bson.M{"id": product.ID}, product,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	s.logger.Debug().Str("product_id", product.ID).Str("title", product.Title).Msg("Product upserted")
	return nil
}

// Get retrieves a product by ID. Returns nil (no error) when the product
// does not exist; reconciliation branches on presence.
func (s *ProductStorage) Get(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.collection().FindOne(ctx, bson.M{"id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// Update replaces an existing product
func (s *ProductStorage) Update(ctx context.Context, product *models.Product) error {
	result, err := s.collection().ReplaceOne(ctx, bson.M{"id": product.ID}, product)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("product not found: %s", product.ID)
	}
	return nil
}

// ApplyAdditive writes only the fields a fresh scrape actually populated.
// An empty field set is a no-op.
func (s *ProductStorage) ApplyAdditive(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	result, err := s.collection().UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to apply additive update: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("product not found: %s", id)
	}
	s.logger.Debug().Str("product_id", id).Int("fields", len(fields)).Msg("Product additively updated")
	return nil
}

// Count returns the number of products
func (s *ProductStorage) Count(ctx context.Context) (int64, error) {
	count, err := s.collection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
