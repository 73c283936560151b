package mongodb

import (
	"context"

	"github.com/iredox10/kano-market-price/internal/core/domain"
	"go.mongodb.org/mongo-driver/mongo"
)

// MembershipRepository implements domain.MembershipService on a memberships collection.
// Each document is keyed by "<groupId>:<userId>", so a repeated insert fails with a
// duplicate key error even before the compound index exists.
type MembershipRepository struct {
	collection *mongo.Collection
}

type membershipDocument struct {
	ID                     string `bson:"_id"`
	domain.GroupMembership `bson:",inline"`
}

func NewMembershipRepository(db *mongo.Database, collection string) *MembershipRepository {
	return &MembershipRepository{
		collection: db.Collection(collection),
	}
}

// MembershipID is the document key of a membership.
func MembershipID(groupID, userID string) string {
	return groupID + ":" + userID
}

// Create inserts the membership, returning domain.ErrConflict if it already exists.
func (r *MembershipRepository) Create(ctx context.Context, m domain.GroupMembership) error {
	_, err := r.collection.InsertOne(ctx, membershipDocument{
		ID:              MembershipID(m.GroupID, m.UserID),
		GroupMembership: m,
	})
	return storeErr("create membership", err)
}
