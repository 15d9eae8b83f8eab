package config

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	db     *mongo.Database
	client *mongo.Client
	once   sync.Once
	dbErr  error
)

// ConnectDB initializes and returns the MongoDB database handle.
func ConnectDB(cfg *Config) (*mongo.Database, error) {
	once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			dbErr = err
			return
		}

		if err := c.Ping(ctx, nil); err != nil {
			dbErr = err
			return
		}

		zap.L().Info("Connected to MongoDB", zap.String("database", cfg.Database))

		client = c
		db = client.Database(cfg.Database)
	})

	return db, dbErr
}

// GetCollection returns a MongoDB collection by name. ConnectDB must have
// succeeded before any collection is used.
func GetCollection(name string) *mongo.Collection {
	return db.Collection(name)
}
