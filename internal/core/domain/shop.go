package domain

import (
	"context"
	"time"
)

// ApplicationStatus is the review state of a shop application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Valid reports whether s is one of the known application states.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// Role is the account role stored on a user record.
type Role string

const (
	RoleUser      Role = "user"
	RoleShopOwner Role = "shopOwner"
	RoleAdmin     Role = "admin"
)

// ShopOwnerVerified is the only status the approval flow writes on a shop-owner record.
const ShopOwnerVerified = "Verified"

// ShopApplication is a user's request to become a verified shop owner.
// Applications are created by the client app; this service only reviews them.
type ShopApplication struct {
	ID           string            `json:"id" bson:"_id"`
	UserID       string            `json:"userId" bson:"userId"`
	UserEmail    string            `json:"userEmail" bson:"userEmail"`
	ShopName     string            `json:"shopName" bson:"shopName"`
	Speciality   string            `json:"speciality" bson:"speciality"`
	Bio          string            `json:"bio" bson:"bio"`
	Phone        string            `json:"phone" bson:"phone"`
	Whatsapp     string            `json:"whatsapp" bson:"whatsapp"`
	OpeningHours string            `json:"openingHours" bson:"openingHours"`
	Market       string            `json:"market" bson:"market"`
	Status       ApplicationStatus `json:"status" bson:"status"`

	// Review
	RejectionReason string     `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	ReviewedBy      string     `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ApplicationUpdate carries the fields a review may change on an application.
type ApplicationUpdate struct {
	Status          ApplicationStatus
	RejectionReason string
	ReviewedBy      string
	ReviewedAt      time.Time
}

// UserAccount is the subset of a user record the service reads and writes.
type UserAccount struct {
	ID     string   `json:"id" bson:"_id"`
	Name   string   `json:"name,omitempty" bson:"name,omitempty"`
	Email  string   `json:"email,omitempty" bson:"email,omitempty"`
	Role   Role     `json:"role" bson:"role"`
	Labels []string `json:"labels,omitempty" bson:"labels,omitempty"`
}

// GroupMembership places a user in a group such as the shop owners cohort.
// There is at most one membership per (GroupID, UserID).
type GroupMembership struct {
	GroupID      string    `json:"groupId" bson:"groupId"`
	UserID       string    `json:"userId" bson:"userId"`
	DisplayRole  string    `json:"displayRole" bson:"displayRole"`
	InvitedEmail string    `json:"invitedEmail" bson:"invitedEmail"`
	InvitedName  string    `json:"invitedName" bson:"invitedName"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// ShopOwnerRecord is the public profile of an approved seller, keyed by the owner's user ID.
type ShopOwnerRecord struct {
	ID            string    `json:"id" bson:"_id"`
	UserID        string    `json:"userId" bson:"userId"`
	Name          string    `json:"name" bson:"name"`
	Specialty     string    `json:"specialty" bson:"specialty"`
	Bio           string    `json:"bio" bson:"bio"`
	Phone         string    `json:"phone" bson:"phone"`
	Whatsapp      string    `json:"whatsapp" bson:"whatsapp"`
	OpeningHours  string    `json:"openingHours" bson:"openingHours"`
	Market        string    `json:"market" bson:"market"`
	Status        string    `json:"status" bson:"status"`
	ApplicationID string    `json:"applicationId,omitempty" bson:"applicationId,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ShopOwnerFromApplication builds the verified shop-owner record for an approved application.
func ShopOwnerFromApplication(app *ShopApplication, now time.Time) ShopOwnerRecord {
	return ShopOwnerRecord{
		ID:            app.UserID,
		UserID:        app.UserID,
		Name:          app.ShopName,
		Specialty:     app.Speciality,
		Bio:           app.Bio,
		Phone:         app.Phone,
		Whatsapp:      app.Whatsapp,
		OpeningHours:  app.OpeningHours,
		Market:        app.Market,
		Status:        ShopOwnerVerified,
		ApplicationID: app.ID,
		UpdatedAt:     now,
	}
}

// ApplicationRepository reads and reviews shop applications.
type ApplicationRepository interface {
	// Get returns ErrNotFound when no application has the given ID.
	Get(ctx context.Context, id string) (*ShopApplication, error)
	Update(ctx context.Context, id string, update ApplicationUpdate) error
	List(ctx context.Context, status ApplicationStatus) ([]ShopApplication, error)
}

// AccountRepository reads user accounts and changes their role.
type AccountRepository interface {
	// Get returns ErrNotFound when no account has the given ID.
	Get(ctx context.Context, id string) (*UserAccount, error)
	UpdateRole(ctx context.Context, id string, role Role) error
}

// MembershipService adds users to groups.
type MembershipService interface {
	// Create returns ErrConflict when the user is already a member of the group.
	Create(ctx context.Context, membership GroupMembership) error
}

// ShopOwnerRepository stores shop-owner records.
type ShopOwnerRepository interface {
	// CreateOrReplace writes the record under record.ID, replacing any previous version.
	CreateOrReplace(ctx context.Context, record ShopOwnerRecord) error
}

// Stores groups the backing stores the approval workflow mutates.
type Stores struct {
	Applications ApplicationRepository
	Accounts     AccountRepository
	Memberships  MembershipService
	ShopOwners   ShopOwnerRepository
}
