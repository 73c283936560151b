package mongodb

import (
	"context"
	"time"

	"github.com/iredox10/kano-market-price/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AccountRepository implements domain.AccountRepository using MongoDB.
type AccountRepository struct {
	collection *mongo.Collection
}

func NewAccountRepository(db *mongo.Database, collection string) *AccountRepository {
	return &AccountRepository{
		collection: db.Collection(collection),
	}
}

func (r *AccountRepository) Get(ctx context.Context, id string) (*domain.UserAccount, error) {
	var acc domain.UserAccount
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&acc); err != nil {
		return nil, storeErr("find account", err)
	}
	return &acc, nil
}

// UpdateRole sets the account role. Writing the same role twice is a no-op for callers.
func (r *AccountRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"role":      role,
			"updatedAt": time.Now(),
		},
	})
	if err != nil {
		return storeErr("update account role", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
