// Package identity resolves bearer tokens into caller identities.
package identity

import (
	"context"
	"errors"

	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/iredox10/kano-market-price/utils"
)

// JWTProvider verifies locally signed tokens and reads the caller's capabilities
// from the account store, so a revoked admin role takes effect without reissuing tokens.
type JWTProvider struct {
	secret   string
	accounts domain.AccountRepository
}

func NewJWTProvider(secret string, accounts domain.AccountRepository) *JWTProvider {
	return &JWTProvider{secret: secret, accounts: accounts}
}

func (p *JWTProvider) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := utils.VerifyToken(p.secret, token)
	if err != nil {
		return nil, domain.NewError(domain.KindUnauthenticated, "invalid or expired token", err)
	}

	account, err := p.accounts.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindUnauthenticated, "caller account not found", err)
		}
		return nil, domain.NewError(domain.KindInternal, "failed to load caller account", err)
	}
	if account.ID == "" {
		account.ID = claims.UserID
	}

	id := domain.IdentityFromAccount(account)
	return &id, nil
}
