package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/sirupsen/logrus"
)

// DisplayRoleShopOwner is the role attached to shop owners group memberships.
const DisplayRoleShopOwner = "shopOwner"

// Service is the admin review surface for shop applications.
type Service interface {
	// Approve promotes a pending application into a verified shop-owner account.
	// The steps are applied in order and are not rolled back on failure; re-running
	// Approve for the same pair is safe and completes a partially applied approval.
	Approve(ctx context.Context, caller domain.Identity, in ApproveInput) (*Outcome, error)
	Reject(ctx context.Context, caller domain.Identity, in RejectInput) (*domain.ShopApplication, error)
	Get(ctx context.Context, caller domain.Identity, applicationID string) (*domain.ShopApplication, error)
	List(ctx context.Context, caller domain.Identity, status domain.ApplicationStatus) ([]domain.ShopApplication, error)
}

// ApproveInput is the approval payload.
type ApproveInput struct {
	ApplicationID string `json:"applicationId" validate:"required"`
	UserID        string `json:"userId" validate:"required"`
}

// RejectInput is the rejection payload.
type RejectInput struct {
	ApplicationID string `json:"applicationId" validate:"required"`
	Reason        string `json:"reason" validate:"max=500"`
}

// Outcome describes a successful approval.
type Outcome struct {
	ApplicationID   string `json:"applicationId"`
	UserID          string `json:"userId"`
	ShopName        string `json:"shopName"`
	AlreadyApproved bool   `json:"alreadyApproved"`
}

// Message is the human readable result shown to the admin.
func (o *Outcome) Message() string {
	if o.AlreadyApproved {
		return fmt.Sprintf("Shop '%s' was already approved.", o.ShopName)
	}
	return fmt.Sprintf("Shop '%s' approved successfully.", o.ShopName)
}

// Config holds the settings the service needs from the process configuration.
type Config struct {
	ShopOwnersGroup string
}

// Option customises a service.
type Option func(*service)

// WithLogger sets the logger used for step logging.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *service) { s.log = l }
}

// WithMetrics records approval outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(s *service) { s.metrics = m }
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	stores  domain.Stores
	group   string
	v       *validator.Validate
	log     logrus.FieldLogger
	metrics *Metrics
	now     func() time.Time
}

// NewService wires the approval service to its backing stores.
func NewService(stores domain.Stores, cfg Config, opts ...Option) Service {
	s := &service{
		stores: stores,
		group:  cfg.ShopOwnersGroup,
		v:      validator.New(),
		log:    logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) authorize(caller domain.Identity) error {
	if caller.UserID == "" {
		return domain.NewError(domain.KindUnauthenticated, "caller is not authenticated", nil)
	}
	if !caller.Has(domain.CapabilityAdmin) {
		return domain.NewError(domain.KindPermissionDenied, "admin privileges are required", nil)
	}
	return nil
}

func (s *service) Approve(ctx context.Context, caller domain.Identity, in ApproveInput) (out *Outcome, err error) {
	start := s.now()
	defer func() { s.metrics.observe(out, err, s.now().Sub(start)) }()

	if err := s.authorize(caller); err != nil {
		return nil, err
	}

	in.ApplicationID = strings.TrimSpace(in.ApplicationID)
	in.UserID = strings.TrimSpace(in.UserID)
	if err := s.v.Struct(in); err != nil {
		return nil, domain.NewError(domain.KindInvalidPayload, "applicationId and userId are required", err)
	}

	log := s.log.WithFields(logrus.Fields{
		"applicationId": in.ApplicationID,
		"userId":        in.UserID,
		"adminId":       caller.UserID,
	})

	// 1. Load the application
	app, err := s.load(ctx, in.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app.UserID != "" && app.UserID != in.UserID {
		return nil, domain.NewError(domain.KindInvalidPayload,
			fmt.Sprintf("userId does not match application %q", in.ApplicationID), nil)
	}
	app.UserID = in.UserID

	outcome := &Outcome{ApplicationID: app.ID, UserID: in.UserID, ShopName: app.ShopName}
	if outcome.ApplicationID == "" {
		outcome.ApplicationID = in.ApplicationID
	}

	// 2. Already approved: nothing to write
	if app.Status == domain.ApplicationApproved {
		log.Info("Shop application already approved")
		outcome.AlreadyApproved = true
		return outcome, nil
	}

	// 3. Shop owners group membership; an existing membership is fine
	err = s.stores.Memberships.Create(ctx, domain.GroupMembership{
		GroupID:      s.group,
		UserID:       in.UserID,
		DisplayRole:  DisplayRoleShopOwner,
		InvitedEmail: app.UserEmail,
		InvitedName:  app.ShopName,
		CreatedAt:    s.now(),
	})
	switch {
	case errors.Is(err, domain.ErrConflict):
		log.WithField("step", "membership").Info("User already in shop owners group, continuing")
	case err != nil:
		log.WithError(err).WithField("step", "membership").Error("Failed to add user to shop owners group")
		return nil, domain.NewError(domain.KindMembershipCreationFailed, "failed to add user to shop owners group", err)
	}

	// 4. Account role
	if err := s.stores.Accounts.UpdateRole(ctx, in.UserID, domain.RoleShopOwner); err != nil {
		log.WithError(err).WithField("step", "role").Error("Failed to update user role")
		return nil, domain.NewError(domain.KindRoleUpdateFailed, "failed to update user role", err)
	}

	// 5. Shop-owner record, keyed by user so a second run replaces it
	if err := s.stores.ShopOwners.CreateOrReplace(ctx, domain.ShopOwnerFromApplication(app, s.now())); err != nil {
		log.WithError(err).WithField("step", "shop_record").Error("Failed to write shop owner record")
		return nil, domain.NewError(domain.KindShopRecordCreationFailed, "failed to create shop owner record", err)
	}

	// 6. Mark approved last so a pending application always means "not finished"
	err = s.stores.Applications.Update(ctx, in.ApplicationID, domain.ApplicationUpdate{
		Status:     domain.ApplicationApproved,
		ReviewedBy: caller.UserID,
		ReviewedAt: s.now(),
	})
	if err != nil {
		log.WithError(err).WithField("step", "status").Error("Failed to mark application approved")
		return nil, domain.NewError(domain.KindStatusUpdateFailed, "failed to update application status", err)
	}

	log.WithField("shopName", app.ShopName).Info("Shop application approved")
	return outcome, nil
}

func (s *service) Reject(ctx context.Context, caller domain.Identity, in RejectInput) (*domain.ShopApplication, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}

	in.ApplicationID = strings.TrimSpace(in.ApplicationID)
	in.Reason = strings.TrimSpace(in.Reason)
	if err := s.v.Struct(in); err != nil {
		return nil, domain.NewError(domain.KindInvalidPayload, "applicationId is required and reason is limited to 500 characters", err)
	}

	app, err := s.load(ctx, in.ApplicationID)
	if err != nil {
		return nil, err
	}

	switch app.Status {
	case domain.ApplicationRejected:
		return app, nil
	case domain.ApplicationApproved:
		return nil, domain.NewError(domain.KindInvalidTransition, "an approved application cannot be rejected", nil)
	}

	now := s.now()
	err = s.stores.Applications.Update(ctx, in.ApplicationID, domain.ApplicationUpdate{
		Status:          domain.ApplicationRejected,
		RejectionReason: in.Reason,
		ReviewedBy:      caller.UserID,
		ReviewedAt:      now,
	})
	if err != nil {
		return nil, domain.NewError(domain.KindStatusUpdateFailed, "failed to update application status", err)
	}

	s.log.WithFields(logrus.Fields{
		"applicationId": in.ApplicationID,
		"adminId":       caller.UserID,
	}).Info("Shop application rejected")

	app.Status = domain.ApplicationRejected
	app.RejectionReason = in.Reason
	app.ReviewedBy = caller.UserID
	app.ReviewedAt = &now
	return app, nil
}

func (s *service) Get(ctx context.Context, caller domain.Identity, applicationID string) (*domain.ShopApplication, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return nil, domain.NewError(domain.KindInvalidPayload, "applicationId is required", nil)
	}
	return s.load(ctx, applicationID)
}

func (s *service) List(ctx context.Context, caller domain.Identity, status domain.ApplicationStatus) ([]domain.ShopApplication, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if status == "" {
		status = domain.ApplicationPending
	}
	if !status.Valid() {
		return nil, domain.NewError(domain.KindInvalidPayload, fmt.Sprintf("unknown status %q", status), nil)
	}

	apps, err := s.stores.Applications.List(ctx, status)
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, "failed to list applications", err)
	}
	if apps == nil {
		apps = []domain.ShopApplication{}
	}
	return apps, nil
}

func (s *service) load(ctx context.Context, id string) (*domain.ShopApplication, error) {
	app, err := s.stores.Applications.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindApplicationNotFound, fmt.Sprintf("application %q not found", id), err)
		}
		return nil, domain.NewError(domain.KindInternal, "failed to load application", err)
	}
	return app, nil
}
