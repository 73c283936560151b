package main

import (
	"context"
	"time"

	"github.com/iredox10/kano-market-price/internal/adapters/repository/mongodb"
	"github.com/iredox10/kano-market-price/internal/config"
	"github.com/sirupsen/logrus"
)

// Run this script once per environment to create database indexes
// Usage: go run scripts/create_indexes.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	if cfg.Backend != config.BackendMongo {
		logrus.Fatalf("BACKEND is %q; indexes only apply to %q", cfg.Backend, config.BackendMongo)
	}

	// Atlas can take a while to select a server
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	logrus.Info("Connecting to MongoDB...")
	client, err := mongodb.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.Mongo.Database)
	if err := mongodb.EnsureIndexes(ctx, db, cfg.MongoCollections()); err != nil {
		logrus.WithError(err).Fatal("Failed to create indexes")
	}

	logrus.Info("All indexes created successfully")
}
