package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nimbus-works/authcore/internal/core/domain"
	"github.com/nimbus-works/authcore/internal/core/ports/driven"
	"github.com/nimbus-works/authcore/internal/core/ports/driving"
)

// Ensure oauthService implements OAuthService
var _ driving.OAuthService = (*oauthService)(nil)

// OAuthServiceConfig holds configuration for the OAuth service.
type OAuthServiceConfig struct {
	// StateStore persists the csrf_state -> code_verifier mapping.
	StateStore driven.StateStore

	// Client performs the provider-side OAuth operations.
	Client driven.OAuthClient

	// StateTTL is how long a pending authorization stays valid.
	// Zero sets no expiry and defers to the store's own aging policy.
	StateTTL time.Duration

	// StrictStateSave fails Authorize when the state write fails.
	// When false a failed write is logged and the redirect proceeds anyway,
	// which leaves the callback unable to find its verifier.
	StrictStateSave bool

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// oauthService implements the OAuthService interface.
type oauthService struct {
	stateStore      driven.StateStore
	client          driven.OAuthClient
	stateTTL        time.Duration
	strictStateSave bool
	logger          *slog.Logger
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(cfg OAuthServiceConfig) driving.OAuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &oauthService{
		stateStore:      cfg.StateStore,
		client:          cfg.Client,
		stateTTL:        cfg.StateTTL,
		strictStateSave: cfg.StrictStateSave,
		logger:          logger,
	}
}

// Authorize starts an authorization flow.
// It generates PKCE credentials, stores state, and returns the authorization URL.
func (s *oauthService) Authorize(ctx context.Context) (*driving.AuthorizeResponse, error) {
	// Generate state (CSRF protection)
	state, err := generateRandomString(32)
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	// Generate PKCE code verifier and challenge
	codeVerifier, err := generateRandomString(64)
	if err != nil {
		return nil, fmt.Errorf("generate code verifier: %w", err)
	}
	codeChallenge := generateCodeChallenge(codeVerifier)

	now := time.Now()
	authState := &domain.AuthState{
		State:        state,
		CodeVerifier: codeVerifier,
		CreatedAt:    now,
	}
	if s.stateTTL > 0 {
		authState.ExpiresAt = now.Add(s.stateTTL)
	}

	if err := s.stateStore.Save(ctx, authState); err != nil {
		if s.strictStateSave {
			return nil, fmt.Errorf("save auth state: %w", err)
		}
		// The redirect still happens; the callback will fail its lookup.
		s.logger.Warn("auth state save failed, continuing", "error", err)
	}

	return &driving.AuthorizeResponse{
		AuthorizationURL: s.client.BuildAuthURL(state, codeChallenge),
		State:            state,
	}, nil
}

// Callback handles the OAuth callback from the provider.
// It consumes the state (single-use), exchanges the code, and fetches the
// authenticated user's profile. The profile is logged but not persisted and
// no application session is created.
func (s *oauthService) Callback(ctx context.Context, req driving.CallbackRequest) (*driving.CallbackResponse, error) {
	// Check for error from provider
	if req.Error != "" {
		return nil, &driving.OAuthError{
			Code:        req.Error,
			Description: req.ErrorDescription,
		}
	}

	// Validate and consume state (single-use)
	authState, err := s.stateStore.GetAndDelete(ctx, req.State)
	if err != nil {
		return nil, fmt.Errorf("get auth state: %w", err)
	}
	if authState == nil || authState.IsExpired() {
		return nil, driving.ErrOAuthInvalidState
	}

	// Exchange code for tokens
	token, err := s.client.ExchangeCode(ctx, req.Code, authState.CodeVerifier)
	if err != nil {
		return nil, &driving.OAuthError{
			Code:        "exchange_failed",
			Description: err.Error(),
		}
	}

	// Fetch the user profile to confirm the token works
	user, err := s.client.GetUser(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrUnsupportedTokenType) {
			return nil, err
		}
		return nil, &driving.OAuthError{
			Code:        "user_info_failed",
			Description: err.Error(),
		}
	}

	s.logger.Debug("github user authenticated",
		"login", user.Login,
		"id", user.ID,
		"type", user.Type,
		"site_admin", user.SiteAdmin)

	return &driving.CallbackResponse{
		Login:   user.Login,
		Message: fmt.Sprintf("Successfully authenticated as %s", user.Login),
	}, nil
}

// generateRandomString generates a cryptographically secure random string.
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}

// generateCodeChallenge creates a PKCE code challenge from a verifier (S256 method).
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
