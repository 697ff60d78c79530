package database

import (
	"context"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/jotter/internal/notes"
	"github.com/MarcoPoloResearchLab/jotter/internal/users"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const defaultMongoConnectTimeout = 10 * time.Second

// MongoConfig describes the MongoDB deployment to connect to.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// OpenMongo connects to MongoDB, verifies the connection and ensures indexes.
// Callers own the returned client and must Disconnect it.
func OpenMongo(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	if cfg.URI == "" {
		return nil, nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		return nil, nil, fmt.Errorf("mongo database name is required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultMongoConnectTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	database := client.Database(cfg.Database)
	if err := ensureMongoIndexes(connectCtx, database); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("driver", "mongo"), zap.String("database", cfg.Database))
	}
	return client, database, nil
}

func ensureMongoIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(users.CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("idx_users_email").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = database.Collection(notes.CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("idx_notes_owner_created"),
	})
	if err != nil {
		return fmt.Errorf("create notes index: %w", err)
	}
	return nil
}
