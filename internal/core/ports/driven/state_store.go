package driven

import (
	"context"

	"github.com/nimbus-works/authcore/internal/core/domain"
)

// StateStore persists pending authorization state for CSRF protection and
// PKCE code verifier storage. States are single-use.
type StateStore interface {
	// Save stores a new auth state keyed by its CSRF state value.
	Save(ctx context.Context, state *domain.AuthState) error

	// GetAndDelete atomically retrieves and deletes the state.
	// This ensures single-use semantics: a code verifier can never be
	// presented for two token exchanges.
	// Returns nil, nil if the state doesn't exist or has expired.
	GetAndDelete(ctx context.Context, state string) (*domain.AuthState, error)
}
