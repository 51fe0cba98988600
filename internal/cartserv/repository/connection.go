package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultMaxPoolSize = 100

	dialTimeout            = 10 * time.Second
	serverSelectionTimeout = 5 * time.Second
)

// ConnectMongoDB dials the carts database and pings it, so a bad URI fails
// at startup instead of on the first request. A zero maxPoolSize picks the
// default; tests and small deployments pass 0, production sizes the pool
// from config.
func ConnectMongoDB(ctx context.Context, uri, database string, maxPoolSize uint64) (*mongo.Database, error) {
	if maxPoolSize == 0 {
		maxPoolSize = defaultMaxPoolSize
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetMaxPoolSize(maxPoolSize)

	client, err := mongo.Connect(dialCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
