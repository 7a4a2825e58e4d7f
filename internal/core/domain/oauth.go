package domain

import "time"

// AuthState represents a pending GitHub authorization attempt.
// The state value doubles as the CSRF token echoed back by the provider
// and as the lookup key for the PKCE code verifier.
type AuthState struct {
	// State is a cryptographically random string used for CSRF protection.
	State string `json:"state"`

	// CodeVerifier is the PKCE code verifier (plain text, not hashed).
	// Its S256 hash is sent as code_challenge in the authorization request
	// and the verifier itself during token exchange.
	CodeVerifier string `json:"code_verifier"`

	// CreatedAt is when the state was created.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is when the state expires. Zero means no expiry is set and
	// the backing store's own aging policy applies.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IsExpired reports whether the state has passed its expiry, if one is set.
func (s *AuthState) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}
