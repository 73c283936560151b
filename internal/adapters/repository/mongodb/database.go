// Package mongodb implements the domain repositories on MongoDB.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections names the collections backing each store.
type Collections struct {
	Applications string
	Accounts     string
	ShopOwners   string
	Memberships  string
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri).SetServerSelectionTimeout(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on. Existing indexes are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database, c Collections) error {
	specs := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{
			// Admin listing by status, newest first
			collection: c.Applications,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_status_createdAt"),
			},
		},
		{
			collection: c.Applications,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().SetName("idx_userId"),
			},
		},
		{
			// One membership per user and group
			collection: c.Memberships,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "groupId", Value: 1}, {Key: "userId", Value: 1}},
				Options: options.Index().SetName("idx_group_user").SetUnique(true),
			},
		},
		{
			collection: c.ShopOwners,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "userId", Value: 1}},
				Options: options.Index().SetName("idx_userId").SetUnique(true),
			},
		},
		{
			collection: c.ShopOwners,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "market", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("idx_market_status"),
			},
		},
	}

	for _, s := range specs {
		name, err := db.Collection(s.collection).Indexes().CreateOne(ctx, s.model)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", s.collection, err)
		}
		logrus.WithFields(logrus.Fields{"collection": s.collection, "index": name}).Info("Index ready")
	}
	return nil
}
