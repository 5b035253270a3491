package mongo

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ternarybob/vestio/internal/common"
)

// MongoDB manages the MongoDB client and database handle
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	logger   arbor.ILogger
	config   *common.MongoConfig
}

// NewMongoDB connects to MongoDB and verifies the connection with a ping
func NewMongoDB(ctx context.Context, logger arbor.ILogger, config *common.MongoConfig) (*MongoDB, error) {
	timeout := common.Duration(config.Timeout, 0)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Debug().Str("uri", common.RedactURL(config.URI)).Msg("Opening MongoDB connection")

	opts := options.Client().ApplyURI(config.URI)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Debug().Str("database", config.Database).Msg("MongoDB connection established")

	return &MongoDB{
		client:   client,
		database: client.Database(config.Database),
		logger:   logger,
		config:   config,
	}, nil
}

// Database returns the database handle
func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

// Collection returns a collection handle by name
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Ping verifies the connection is still alive
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (m *MongoDB) Close() error {
	if m.client != nil {
		return m.client.Disconnect(context.Background())
	}
	return nil
}
