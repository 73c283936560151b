package appwrite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/tidwall/gjson"
)

// listLimit caps admin listings; the review queue is small.
const listLimit = 100

// Collections names the backend collections used by the stores.
type Collections struct {
	Applications string
	Accounts     string
	ShopOwners   string
}

// Stores returns every domain store backed by c.
func (c *Client) Stores(cols Collections) domain.Stores {
	return domain.Stores{
		Applications: &ApplicationStore{client: c, collection: cols.Applications},
		Accounts:     &AccountStore{client: c, collection: cols.Accounts},
		Memberships:  &TeamMemberships{client: c},
		ShopOwners:   &ShopOwnerStore{client: c, collection: cols.ShopOwners},
	}
}

// ApplicationStore implements domain.ApplicationRepository.
type ApplicationStore struct {
	client     *Client
	collection string
}

func (s *ApplicationStore) Get(ctx context.Context, id string) (*domain.ShopApplication, error) {
	doc, err := s.client.getDocument(ctx, s.collection, id)
	if err != nil {
		return nil, wrap("get application", err)
	}
	app := applicationFromDocument(doc)
	return &app, nil
}

func (s *ApplicationStore) Update(ctx context.Context, id string, update domain.ApplicationUpdate) error {
	data := map[string]any{"status": string(update.Status)}
	if update.ReviewedBy != "" {
		data["reviewedBy"] = update.ReviewedBy
	}
	if !update.ReviewedAt.IsZero() {
		data["reviewedAt"] = update.ReviewedAt.UTC().Format(time.RFC3339)
	}
	if update.RejectionReason != "" {
		data["rejectionReason"] = update.RejectionReason
	}
	return wrap("update application", s.client.updateDocument(ctx, s.collection, id, data))
}

func (s *ApplicationStore) List(ctx context.Context, status domain.ApplicationStatus) ([]domain.ShopApplication, error) {
	docs, err := s.client.listDocuments(ctx, s.collection,
		query("equal", "status", string(status)),
		query("orderDesc", "$createdAt"),
		query("limit", "", listLimit),
	)
	if err != nil {
		return nil, wrap("list applications", err)
	}
	apps := make([]domain.ShopApplication, 0, len(docs))
	for _, doc := range docs {
		apps = append(apps, applicationFromDocument(doc))
	}
	return apps, nil
}

// AccountStore implements domain.AccountRepository on the user profile collection.
type AccountStore struct {
	client     *Client
	collection string
}

func (s *AccountStore) Get(ctx context.Context, id string) (*domain.UserAccount, error) {
	doc, err := s.client.getDocument(ctx, s.collection, id)
	if err != nil {
		return nil, wrap("get account", err)
	}
	acc := accountFromDocument(doc)
	return &acc, nil
}

func (s *AccountStore) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	err := s.client.updateDocument(ctx, s.collection, id, map[string]any{"role": string(role)})
	return wrap("update account role", err)
}

// TeamMemberships implements domain.MembershipService on the teams API.
type TeamMemberships struct {
	client *Client
}

// Create adds the user to the team. The backend answers 409 when the user is already a member.
func (t *TeamMemberships) Create(ctx context.Context, m domain.GroupMembership) error {
	body := map[string]any{
		"userId": m.UserID,
		"roles":  []string{m.DisplayRole},
	}
	if m.InvitedEmail != "" {
		body["email"] = m.InvitedEmail
	}
	if m.InvitedName != "" {
		body["name"] = m.InvitedName
	}
	_, err := t.client.do(ctx, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/teams/%s/memberships", url.PathEscape(m.GroupID)),
		body:   body,
	})
	return wrap("create membership", err)
}

// ShopOwnerStore implements domain.ShopOwnerRepository.
type ShopOwnerStore struct {
	client     *Client
	collection string
}

// CreateOrReplace creates the document and overwrites its fields when it already exists.
func (s *ShopOwnerStore) CreateOrReplace(ctx context.Context, rec domain.ShopOwnerRecord) error {
	data := map[string]any{
		"name":         rec.Name,
		"specialty":    rec.Specialty,
		"bio":          rec.Bio,
		"phone":        rec.Phone,
		"whatsapp":     rec.Whatsapp,
		"openingHours": rec.OpeningHours,
		"market":       rec.Market,
		"userId":       rec.UserID,
		"status":       rec.Status,
	}
	err := s.client.createDocument(ctx, s.collection, rec.ID, data)
	if errors.Is(err, domain.ErrConflict) {
		err = s.client.updateDocument(ctx, s.collection, rec.ID, data)
	}
	return wrap("write shop owner", err)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func applicationFromDocument(doc gjson.Result) domain.ShopApplication {
	app := domain.ShopApplication{
		ID:              doc.Get(`\$id`).String(),
		UserID:          doc.Get("userId").String(),
		UserEmail:       doc.Get("userEmail").String(),
		ShopName:        doc.Get("shopName").String(),
		Speciality:      doc.Get("speciality").String(),
		Bio:             doc.Get("bio").String(),
		Phone:           doc.Get("phone").String(),
		Whatsapp:        doc.Get("whatsapp").String(),
		OpeningHours:    doc.Get("openingHours").String(),
		Market:          doc.Get("market").String(),
		Status:          domain.ApplicationStatus(doc.Get("status").String()),
		RejectionReason: doc.Get("rejectionReason").String(),
		ReviewedBy:      doc.Get("reviewedBy").String(),
		CreatedAt:       parseTime(doc.Get(`\$createdAt`)),
		UpdatedAt:       parseTime(doc.Get(`\$updatedAt`)),
	}
	// Older documents spell the field the other way.
	if app.Speciality == "" {
		app.Speciality = doc.Get("specialty").String()
	}
	if app.Status == "" {
		app.Status = domain.ApplicationPending
	}
	if t := parseTime(doc.Get("reviewedAt")); !t.IsZero() {
		app.ReviewedAt = &t
	}
	return app
}

func accountFromDocument(doc gjson.Result) domain.UserAccount {
	acc := domain.UserAccount{
		ID:    doc.Get(`\$id`).String(),
		Name:  doc.Get("name").String(),
		Email: doc.Get("email").String(),
		Role:  domain.Role(doc.Get("role").String()),
	}
	for _, l := range doc.Get("labels").Array() {
		acc.Labels = append(acc.Labels, l.String())
	}
	return acc
}

func parseTime(v gjson.Result) time.Time {
	if !v.Exists() || v.String() == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v.String())
	if err != nil {
		return time.Time{}
	}
	return t
}
