package appwrite

import (
	"context"
	"errors"
	"net/http"

	"github.com/iredox10/kano-market-price/internal/core/domain"
)

// IdentityProvider resolves end-user session JWTs issued by the hosted auth service.
// Admin capability comes from the user's labels, falling back to the role on the
// user's profile document.
type IdentityProvider struct {
	client   *Client
	accounts domain.AccountRepository
}

func (c *Client) IdentityProvider(accounts domain.AccountRepository) *IdentityProvider {
	return &IdentityProvider{client: c, accounts: accounts}
}

func (p *IdentityProvider) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	user, err := p.client.do(ctx, request{method: http.MethodGet, path: "/account", jwt: token})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return nil, domain.NewError(domain.KindUnauthenticated, "invalid or expired session", err)
		}
		return nil, domain.NewError(domain.KindInternal, "failed to resolve caller", err)
	}

	account := accountFromDocument(user)
	if account.ID == "" {
		return nil, domain.NewError(domain.KindUnauthenticated, "session has no user", nil)
	}

	id := domain.IdentityFromAccount(&account)
	if !id.Has(domain.CapabilityAdmin) && p.accounts != nil {
		profile, err := p.accounts.Get(ctx, account.ID)
		switch {
		case err == nil:
			profile.Labels = append(profile.Labels, account.Labels...)
			profile.ID = account.ID
			id = domain.IdentityFromAccount(profile)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, domain.NewError(domain.KindInternal, "failed to load caller profile", err)
		}
	}
	return &id, nil
}
