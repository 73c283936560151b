package mongodb

import (
	"context"

	"github.com/iredox10/kano-market-price/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ShopOwnerRepository implements domain.ShopOwnerRepository using MongoDB.
type ShopOwnerRepository struct {
	collection *mongo.Collection
}

func NewShopOwnerRepository(db *mongo.Database, collection string) *ShopOwnerRepository {
	return &ShopOwnerRepository{
		collection: db.Collection(collection),
	}
}

// CreateOrReplace upserts the whole record under its ID.
func (r *ShopOwnerRepository) CreateOrReplace(ctx context.Context, rec domain.ShopOwnerRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts)
	return storeErr("replace shop owner", err)
}
