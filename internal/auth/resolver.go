// Package auth resolves inbound credentials to authenticated users.
// Credential issuance (login, token minting) is handled by the auth
// service elsewhere; this package only validates what it is handed.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborcrm/harbor/internal/model"
	"github.com/harborcrm/harbor/internal/store"
)

// Resolver maps an opaque credential to the user holding it. A failed
// resolution is always ErrUnauthenticated; callers fail closed.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*model.User, error)
}

// StoreResolver resolves bearer tokens against the api_tokens table,
// returning the user with role capabilities populated.
type StoreResolver struct {
	store store.Store
}

// NewStoreResolver creates a token resolver backed by the given store.
func NewStoreResolver(s store.Store) *StoreResolver {
	return &StoreResolver{store: s}
}

// Resolve validates a bearer token. A "Bearer " prefix is accepted and
// stripped so the same value works from an Authorization header or a
// query parameter.
func (r *StoreResolver) Resolve(ctx context.Context, credential string) (*model.User, error) {
	credential = strings.TrimPrefix(strings.TrimSpace(credential), "Bearer ")
	if credential == "" {
		return nil, fmt.Errorf("empty credential: %w", model.ErrUnauthenticated)
	}
	return r.store.GetUserByToken(ctx, credential)
}
