package driven

import (
	"context"

	"github.com/nimbus-works/authcore/internal/core/domain"
)

// OAuthToken holds the credentials returned by the provider's token endpoint.
type OAuthToken struct {
	// AccessToken is the bearer credential for API calls.
	AccessToken string

	// TokenType is the token type as reported by the provider ("bearer").
	TokenType string

	// Scope is the granted scope string. GitHub returns a single
	// comma-separated value rather than space-separated scopes.
	Scope string
}

// OAuthClient provides the provider-side operations of the authorization
// code flow: building the authorization URL, exchanging the code, and
// fetching the authenticated user's profile.
type OAuthClient interface {
	// BuildAuthURL constructs the authorization URL the user is redirected to.
	// codeChallenge is the S256 hash of the PKCE code verifier.
	BuildAuthURL(state, codeChallenge string) string

	// ExchangeCode exchanges an authorization code for tokens.
	// codeVerifier is the plain-text PKCE verifier paired with the challenge
	// used in the authorization request.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*OAuthToken, error)

	// GetUser fetches the authenticated user's profile.
	// Rejects non-bearer tokens with domain.ErrUnsupportedTokenType before
	// any network call; an unauthorized response maps to domain.ErrUnauthorized.
	GetUser(ctx context.Context, token *OAuthToken) (*domain.GitHubUser, error)
}
