package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nimbus-works/authcore/internal/core/domain"
	"github.com/nimbus-works/authcore/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.OAuthClient = (*Client)(nil)

const (
	defaultAuthURL    = "https://github.com/login/oauth/authorize"
	defaultTokenURL   = "https://github.com/login/oauth/access_token"
	defaultUserAPIURL = "https://api.github.com/user"
)

// Config holds GitHub OAuth client configuration.
type Config struct {
	// ClientID is the OAuth application client ID.
	ClientID string

	// ClientSecret is the OAuth application client secret.
	ClientSecret string

	// RedirectURI is the callback URL registered with the OAuth app.
	RedirectURI string

	// AuthURL, TokenURL and UserAPIURL default to GitHub's public endpoints.
	AuthURL    string
	TokenURL   string
	UserAPIURL string

	// Scopes are the OAuth scopes requested during authorization.
	Scopes []string
}

// DefaultConfig returns the GitHub configuration used in production:
// public GitHub endpoints with public-repo and email access.
func DefaultConfig(clientID, clientSecret, redirectURI string) Config {
	return Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		AuthURL:      defaultAuthURL,
		TokenURL:     defaultTokenURL,
		UserAPIURL:   defaultUserAPIURL,
		Scopes:       []string{"public_repo", "user:email"},
	}
}

// Client performs the GitHub side of the authorization code flow.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new GitHub OAuth client.
func NewClient(cfg Config) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserAPIURL == "" {
		cfg.UserAPIURL = defaultUserAPIURL
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
}

// BuildAuthURL constructs the GitHub OAuth authorization URL.
func (c *Client) BuildAuthURL(state, codeChallenge string) string {
	params := url.Values{
		"client_id":             {c.cfg.ClientID},
		"redirect_uri":          {c.cfg.RedirectURI},
		"state":                 {state},
		"scope":                 {strings.Join(c.cfg.Scopes, " ")},
		"response_type":         {"code"},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return c.cfg.AuthURL + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for tokens.
// GitHub signals failures via an error field in a 200 JSON body, so both the
// HTTP status and the body are checked.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*driven.OAuthToken, error) {
	params := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"code":          {code},
		"redirect_uri":  {c.cfg.RedirectURI},
	}
	if codeVerifier != "" {
		params.Set("code_verifier", codeVerifier)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.TokenURL,
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed: %s", string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		Scope       string `json:"scope"`
		Error       string `json:"error"`
		ErrorDesc   string `json:"error_description"`
	}

	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if tokenResp.Error != "" {
		return nil, fmt.Errorf("oauth error: %s - %s", tokenResp.Error, tokenResp.ErrorDesc)
	}

	return &driven.OAuthToken{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		Scope:       tokenResp.Scope,
	}, nil
}

// GetUser fetches the authenticated user's profile.
// Only bearer tokens are accepted; anything else is rejected before a request
// is made. A 401 maps to domain.ErrUnauthorized, other non-200 statuses to a
// generic upstream failure, and a malformed body to a distinct parse error.
func (c *Client) GetUser(ctx context.Context, token *driven.OAuthToken) (*domain.GitHubUser, error) {
	if !strings.EqualFold(token.TokenType, "bearer") {
		return nil, fmt.Errorf("token type %q: %w", token.TokenType, domain.ErrUnsupportedTokenType)
	}

	// GitHub returns a single comma-separated scope value instead of the
	// space-separated list RFC 6749 suggests.
	c.logger.Debug("github token granted", "scopes", splitScopes(token.Scope))

	req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.UserAPIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, domain.ErrUnauthorized
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get user failed: status %d: %s", resp.StatusCode, string(body))
	}

	var user domain.GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("parse user: %w", err)
	}

	return &user, nil
}

// splitScopes splits GitHub's comma-separated scope string, tolerating the
// space-separated form as well.
func splitScopes(scope string) []string {
	if scope == "" {
		return nil
	}
	fields := strings.FieldsFunc(scope, func(r rune) bool {
		return r == ',' || r == ' '
	})
	return fields
}
