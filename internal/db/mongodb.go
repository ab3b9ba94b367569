package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// NewMongoDB connects to a mongo database and returns a new instance of
// *mongo.Database.
func NewMongoDB(ctx context.Context, dbName string, connectionURL string, log *zap.Logger) (*mongo.Database, error) {
	if connectionURL == "" {
		return nil, errors.New("missing mongodb database connection URL")
	}

	if dbName == "" {
		return nil, errors.New("database name is required")
	}

	// Set server API version for the client.
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(connectionURL).SetServerAPIOptions(serverAPI)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("client.Ping error: %w", err)
	}

	log.Info("Database has been connected and pinged successfully", zap.String("database", dbName))

	return client.Database(dbName), nil
}

// ShutdownMongoDB attempts to shutdown db.
func ShutdownMongoDB(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	err := db.Client().Disconnect(ctx)
	if err != nil {
		return fmt.Errorf("client.Disconnect error: %w", err)
	}

	log.Info("Database has been shutdown successfully", zap.String("database", db.Name()))

	return nil
}
