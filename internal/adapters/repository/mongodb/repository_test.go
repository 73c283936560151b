package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestApplicationRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB, "applications")
		ns := mt.DB.Name() + ".applications"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "app123"},
			{Key: "userId", Value: "user456"},
			{Key: "userEmail", Value: "a@x.com"},
			{Key: "shopName", Value: "Adamu & Sons"},
			{Key: "speciality", Value: "Grains"},
			{Key: "status", Value: "pending"},
		}))

		app, err := repo.Get(context.Background(), "app123")
		require.NoError(mt, err)
		assert.Equal(mt, "app123", app.ID)
		assert.Equal(mt, "Adamu & Sons", app.ShopName)
		assert.Equal(mt, "Grains", app.Speciality)
		assert.Equal(mt, domain.ApplicationPending, app.Status)
	})

	mt.Run("get not found", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB, "applications")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".applications", mtest.FirstBatch))

		_, err := repo.Get(context.Background(), "missing")
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("update", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB, "applications")
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.Update(context.Background(), "app123", domain.ApplicationUpdate{
			Status:     domain.ApplicationApproved,
			ReviewedBy: "admin1",
			ReviewedAt: time.Now(),
		})
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		set := evt.Command.Lookup("updates", "0", "u", "$set")
		assert.Equal(mt, "approved", set.Document().Lookup("status").StringValue())
		assert.Equal(mt, "admin1", set.Document().Lookup("reviewedBy").StringValue())
	})

	mt.Run("update missing", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB, "applications")
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.Update(context.Background(), "missing", domain.ApplicationUpdate{Status: domain.ApplicationRejected})
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB, "applications")
		ns := mt.DB.Name() + ".applications"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "a2"}, {Key: "shopName", Value: "Newer"}, {Key: "status", Value: "pending"}},
			bson.D{{Key: "_id", Value: "a1"}, {Key: "shopName", Value: "Older"}, {Key: "status", Value: "pending"}},
		))

		apps, err := repo.List(context.Background(), domain.ApplicationPending)
		require.NoError(mt, err)
		require.Len(mt, apps, 2)
		assert.Equal(mt, "a2", apps[0].ID)
		assert.Equal(mt, "Older", apps[1].ShopName)
	})

	mt.Run("list empty", func(mt *mtest.T) {
		repo := NewApplicationRepository(mt.DB, "applications")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".applications", mtest.FirstBatch))

		apps, err := repo.List(context.Background(), domain.ApplicationRejected)
		require.NoError(mt, err)
		assert.NotNil(mt, apps)
		assert.Empty(mt, apps)
	})
}

func TestAccountRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, "users")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "admin1"},
			{Key: "role", Value: "admin"},
			{Key: "labels", Value: bson.A{"staff"}},
		}))

		acc, err := repo.Get(context.Background(), "admin1")
		require.NoError(mt, err)
		assert.Equal(mt, domain.RoleAdmin, acc.Role)
		assert.Equal(mt, []string{"staff"}, acc.Labels)
	})

	mt.Run("update role", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, "users")
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		require.NoError(mt, repo.UpdateRole(context.Background(), "user456", domain.RoleShopOwner))
	})

	mt.Run("update role missing account", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB, "users")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.UpdateRole(context.Background(), "ghost", domain.RoleShopOwner)
		assert.ErrorIs(mt, err, domain.ErrNotFound)
	})
}

func TestMembershipRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMembershipRepository(mt.DB, "groupMemberships")
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), domain.GroupMembership{
			GroupID: "shop-owners", UserID: "user456", DisplayRole: "shopOwner",
		})
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "insert", evt.CommandName)
		doc := evt.Command.Lookup("documents", "0").Document()
		assert.Equal(mt, "shop-owners:user456", doc.Lookup("_id").StringValue())
		assert.Equal(mt, "user456", doc.Lookup("userId").StringValue())
	})

	mt.Run("duplicate is conflict", func(mt *mtest.T) {
		repo := NewMembershipRepository(mt.DB, "groupMemberships")
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := repo.Create(context.Background(), domain.GroupMembership{GroupID: "shop-owners", UserID: "user456"})
		assert.ErrorIs(mt, err, domain.ErrConflict)
	})
}

func TestShopOwnerRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert", func(mt *mtest.T) {
		repo := NewShopOwnerRepository(mt.DB, "shopOwners")
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.CreateOrReplace(context.Background(), domain.ShopOwnerRecord{
			ID: "user456", UserID: "user456", Name: "Adamu & Sons", Status: domain.ShopOwnerVerified,
		})
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		update := evt.Command.Lookup("updates", "0").Document()
		assert.True(mt, update.Lookup("upsert").Boolean())
		assert.Equal(mt, "user456", update.Lookup("q", "_id").StringValue())
		assert.Equal(mt, "Verified", update.Lookup("u", "status").StringValue())
	})
}

func TestStoreErr(t *testing.T) {
	assert.NoError(t, storeErr("op", nil))
	assert.ErrorIs(t, storeErr("op", mongo.ErrNoDocuments), domain.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000"}}}
	assert.ErrorIs(t, storeErr("op", dup), domain.ErrConflict)

	network := mongo.CommandError{Code: 6, Message: "host unreachable", Labels: []string{"NetworkError"}}
	assert.ErrorIs(t, storeErr("op", network), domain.ErrUnavailable)

	assert.ErrorIs(t, storeErr("op", context.DeadlineExceeded), domain.ErrUnavailable)

	other := errors.New("bad value")
	err := storeErr("op", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestMembershipID(t *testing.T) {
	assert.Equal(t, "shop-owners:user456", MembershipID("shop-owners", "user456"))
}
