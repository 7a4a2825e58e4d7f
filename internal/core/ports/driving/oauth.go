package driving

import "context"

// OAuthService handles the GitHub OAuth2 authorization code flow with PKCE.
type OAuthService interface {
	// Authorize starts an authorization flow. It generates PKCE credentials,
	// stores flow state, and returns the authorization URL to redirect to.
	Authorize(ctx context.Context) (*AuthorizeResponse, error)

	// Callback handles the OAuth callback from the provider. It consumes the
	// stored state, exchanges the code for tokens, and fetches the profile.
	Callback(ctx context.Context, req CallbackRequest) (*CallbackResponse, error)
}

// AuthorizeResponse contains the authorization URL and CSRF state.
type AuthorizeResponse struct {
	// AuthorizationURL is the URL to redirect the user to for authorization.
	AuthorizationURL string `json:"authorization_url"`

	// State is the CSRF token that the provider will echo back in the callback.
	State string `json:"state"`
}

// CallbackRequest represents the OAuth callback from the provider.
type CallbackRequest struct {
	// Code is the authorization code from the provider.
	Code string `json:"code"`

	// State is the CSRF token returned by the provider.
	State string `json:"state"`

	// Error is set if the provider returned an error.
	Error string `json:"error,omitempty"`

	// ErrorDescription provides details about the error.
	ErrorDescription string `json:"error_description,omitempty"`
}

// CallbackResponse contains the result of a completed authorization.
type CallbackResponse struct {
	// Login is the GitHub login of the authenticated user.
	Login string `json:"login"`

	// Message provides a human-readable status message.
	Message string `json:"message"`
}

// OAuthError represents an OAuth-specific error.
type OAuthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// Common OAuth errors
var (
	ErrOAuthInvalidState   = &OAuthError{Code: "invalid_state", Description: "The state parameter is invalid or expired"}
	ErrOAuthExchangeFailed = &OAuthError{Code: "exchange_failed", Description: "Failed to exchange authorization code for tokens"}
	ErrOAuthUserInfoFailed = &OAuthError{Code: "user_info_failed", Description: "Failed to fetch user information"}
)
