package domain

import (
	"context"
	"strings"
)

// Capability is a permission a caller may hold.
type Capability string

const (
	CapabilityAdmin Capability = "admin"
)

// Identity is an authenticated caller.
type Identity struct {
	UserID       string
	Capabilities map[Capability]struct{}
}

// NewIdentity builds an identity holding the given capabilities.
func NewIdentity(userID string, caps ...Capability) Identity {
	id := Identity{UserID: userID, Capabilities: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		id.Capabilities[c] = struct{}{}
	}
	return id
}

// Has reports whether the identity holds capability c.
func (i Identity) Has(c Capability) bool {
	_, ok := i.Capabilities[c]
	return ok
}

// IdentityFromAccount maps the stored role and labels of an account to capabilities.
// Label matching is case-insensitive because hosted backends normalise labels differently.
func IdentityFromAccount(account *UserAccount) Identity {
	var caps []Capability
	if account.Role == RoleAdmin {
		caps = append(caps, CapabilityAdmin)
	}
	for _, l := range account.Labels {
		if strings.EqualFold(strings.TrimSpace(l), string(CapabilityAdmin)) {
			caps = append(caps, CapabilityAdmin)
		}
	}
	return NewIdentity(account.ID, caps...)
}

// IdentityProvider turns a raw bearer token into an Identity.
type IdentityProvider interface {
	// Resolve returns ErrUnauthenticated when the token does not identify a caller.
	Resolve(ctx context.Context, token string) (*Identity, error)
}
