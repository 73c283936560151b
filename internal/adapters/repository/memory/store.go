// Package memory keeps applications, accounts, memberships and shop-owner records in process.
// Every mutation is recorded so tests can assert the order of writes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iredox10/kano-market-price/internal/core/domain"
)

// Op names a store mutation.
type Op string

const (
	OpCreateMembership  Op = "membership.create"
	OpUpdateRole        Op = "account.updateRole"
	OpReplaceShopOwner  Op = "shopOwner.createOrReplace"
	OpUpdateApplication Op = "application.update"
)

// Mutation is one recorded write attempt.
type Mutation struct {
	Op  Op
	Key string
	Err error
}

// Store implements every repository port of the domain package.
type Store struct {
	mu           sync.Mutex
	applications map[string]domain.ShopApplication
	accounts     map[string]domain.UserAccount
	memberships  map[string]domain.GroupMembership
	shopOwners   map[string]domain.ShopOwnerRecord
	failures     map[Op]error
	log          []Mutation
}

// New returns an empty store.
func New() *Store {
	return &Store{
		applications: make(map[string]domain.ShopApplication),
		accounts:     make(map[string]domain.UserAccount),
		memberships:  make(map[string]domain.GroupMembership),
		shopOwners:   make(map[string]domain.ShopOwnerRecord),
		failures:     make(map[Op]error),
	}
}

// Stores exposes s through the domain.Stores bundle.
func (s *Store) Stores() domain.Stores {
	return domain.Stores{
		Applications: s.Applications(),
		Accounts:     s.Accounts(),
		Memberships:  s,
		ShopOwners:   s,
	}
}

// PutApplication seeds an application.
func (s *Store) PutApplication(app domain.ShopApplication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now()
	}
	s.applications[app.ID] = app
}

// PutAccount seeds an account.
func (s *Store) PutAccount(acc domain.UserAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = acc
}

// FailOn makes every subsequent op return err until cleared with FailOn(op, nil).
func (s *Store) FailOn(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Mutations returns the recorded write attempts in call order.
func (s *Store) Mutations() []Mutation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Mutation, len(s.log))
	copy(out, s.log)
	return out
}

// ResetMutations clears the mutation log.
func (s *Store) ResetMutations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
}

// Application returns a copy of the stored application.
func (s *Store) Application(id string) (domain.ShopApplication, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	return app, ok
}

// Account returns a copy of the stored account.
func (s *Store) Account(id string) (domain.UserAccount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	return acc, ok
}

// ShopOwner returns a copy of the stored shop-owner record.
func (s *Store) ShopOwner(id string) (domain.ShopOwnerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.shopOwners[id]
	return rec, ok
}

// GroupMembers returns every membership of a group.
func (s *Store) GroupMembers(groupID string) []domain.GroupMembership {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.GroupMembership
	for _, m := range s.memberships {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out
}

// record appends to the log and returns the injected failure for op, if any.
// Callers must hold s.mu.
func (s *Store) record(op Op, key string) error {
	err := s.failures[op]
	s.log = append(s.log, Mutation{Op: op, Key: key, Err: err})
	return err
}

// Applications returns the application repository view of s.
func (s *Store) Applications() domain.ApplicationRepository { return applicationRepo{s} }

// Accounts returns the account repository view of s.
func (s *Store) Accounts() domain.AccountRepository { return accountRepo{s} }

type applicationRepo struct{ s *Store }

func (r applicationRepo) Get(ctx context.Context, id string) (*domain.ShopApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	app, ok := r.s.applications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &app, nil
}

func (r applicationRepo) Update(ctx context.Context, id string, update domain.ApplicationUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record(OpUpdateApplication, id); err != nil {
		return err
	}
	app, ok := r.s.applications[id]
	if !ok {
		return domain.ErrNotFound
	}
	app.Status = update.Status
	app.RejectionReason = update.RejectionReason
	app.ReviewedBy = update.ReviewedBy
	if !update.ReviewedAt.IsZero() {
		at := update.ReviewedAt
		app.ReviewedAt = &at
	}
	app.UpdatedAt = time.Now()
	r.s.applications[id] = app
	return nil
}

func (r applicationRepo) List(ctx context.Context, status domain.ApplicationStatus) ([]domain.ShopApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.ShopApplication
	for _, app := range r.s.applications {
		if app.Status == status {
			out = append(out, app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type accountRepo struct{ s *Store }

func (r accountRepo) Get(ctx context.Context, id string) (*domain.UserAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	acc, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &acc, nil
}

func (r accountRepo) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.record(OpUpdateRole, id); err != nil {
		return err
	}
	acc, ok := r.s.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	acc.Role = role
	r.s.accounts[id] = acc
	return nil
}

// Create adds a group membership; a second membership for the same user and group is ErrConflict.
func (s *Store) Create(ctx context.Context, m domain.GroupMembership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := m.GroupID + "/" + m.UserID
	if err := s.record(OpCreateMembership, key); err != nil {
		return err
	}
	if _, exists := s.memberships[key]; exists {
		return domain.ErrConflict
	}
	s.memberships[key] = m
	return nil
}

func (s *Store) CreateOrReplace(ctx context.Context, rec domain.ShopOwnerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpReplaceShopOwner, rec.ID); err != nil {
		return err
	}
	s.shopOwners[rec.ID] = rec
	return nil
}
