package mongodb

import (
	"context"
	"time"

	"github.com/iredox10/kano-market-price/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ApplicationRepository implements domain.ApplicationRepository using MongoDB.
type ApplicationRepository struct {
	collection *mongo.Collection
}

// NewApplicationRepository binds the repository to the named collection.
func NewApplicationRepository(db *mongo.Database, collection string) *ApplicationRepository {
	return &ApplicationRepository{
		collection: db.Collection(collection),
	}
}

// Get finds an application by ID.
func (r *ApplicationRepository) Get(ctx context.Context, id string) (*domain.ShopApplication, error) {
	var app domain.ShopApplication
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&app); err != nil {
		return nil, storeErr("find application", err)
	}
	return &app, nil
}

// Update applies a review decision. Only the review fields are touched.
func (r *ApplicationRepository) Update(ctx context.Context, id string, update domain.ApplicationUpdate) error {
	set := bson.M{
		"status":    update.Status,
		"updatedAt": time.Now(),
	}
	if update.ReviewedBy != "" {
		set["reviewedBy"] = update.ReviewedBy
	}
	if !update.ReviewedAt.IsZero() {
		set["reviewedAt"] = update.ReviewedAt
	}
	doc := bson.M{"$set": set}
	if update.RejectionReason != "" {
		set["rejectionReason"] = update.RejectionReason
	} else {
		doc["$unset"] = bson.M{"rejectionReason": ""}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return storeErr("update application", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns applications in the given status, newest first.
func (r *ApplicationRepository) List(ctx context.Context, status domain.ApplicationStatus) ([]domain.ShopApplication, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, storeErr("list applications", err)
	}
	defer cursor.Close(ctx)

	apps := []domain.ShopApplication{}
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, storeErr("decode applications", err)
	}
	return apps, nil
}
