package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nimbus-works/authcore/internal/core/domain"
	"github.com/nimbus-works/authcore/internal/core/ports/driven"
	"github.com/nimbus-works/authcore/internal/core/ports/driving"
)

// mockStateStore implements driven.StateStore for testing
type mockStateStore struct {
	states  map[string]*domain.AuthState
	saveErr error
}

func newMockStateStore() *mockStateStore {
	return &mockStateStore{states: make(map[string]*domain.AuthState)}
}

func (m *mockStateStore) Save(ctx context.Context, state *domain.AuthState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.states[state.State] = state
	return nil
}

func (m *mockStateStore) GetAndDelete(ctx context.Context, state string) (*domain.AuthState, error) {
	s, ok := m.states[state]
	if !ok {
		return nil, nil
	}
	delete(m.states, state)
	if s.IsExpired() {
		return nil, nil
	}
	return s, nil
}

// mockOAuthClient implements driven.OAuthClient for testing
type mockOAuthClient struct {
	exchangeFn func(ctx context.Context, code, codeVerifier string) (*driven.OAuthToken, error)
	getUserFn  func(ctx context.Context, token *driven.OAuthToken) (*domain.GitHubUser, error)

	lastState     string
	lastChallenge string
	exchangeCalls int
}

func (m *mockOAuthClient) BuildAuthURL(state, codeChallenge string) string {
	m.lastState = state
	m.lastChallenge = codeChallenge
	return fmt.Sprintf("https://github.test/login/oauth/authorize?state=%s&code_challenge=%s", state, codeChallenge)
}

func (m *mockOAuthClient) ExchangeCode(ctx context.Context, code, codeVerifier string) (*driven.OAuthToken, error) {
	m.exchangeCalls++
	if m.exchangeFn != nil {
		return m.exchangeFn(ctx, code, codeVerifier)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOAuthClient) GetUser(ctx context.Context, token *driven.OAuthToken) (*domain.GitHubUser, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func newTestService(store driven.StateStore, client driven.OAuthClient, strict bool) driving.OAuthService {
	return NewOAuthService(OAuthServiceConfig{
		StateStore:      store,
		Client:          client,
		StateTTL:        10 * time.Minute,
		StrictStateSave: strict,
	})
}

func TestAuthorize_PairsStateWithVerifier(t *testing.T) {
	store := newMockStateStore()
	client := &mockOAuthClient{}
	svc := newTestService(store, client, false)

	resp, err := svc.Authorize(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.State == "" {
		t.Fatal("expected non-empty state")
	}
	if !strings.Contains(resp.AuthorizationURL, "state="+resp.State) {
		t.Errorf("authorization URL %q does not embed state %q", resp.AuthorizationURL, resp.State)
	}

	saved, ok := store.states[resp.State]
	if !ok {
		t.Fatalf("no auth state stored under %q", resp.State)
	}
	if saved.CodeVerifier == "" {
		t.Fatal("expected stored code verifier")
	}

	// The challenge sent to the provider must be the S256 hash of the
	// verifier stored under this exact state
	hash := sha256.Sum256([]byte(saved.CodeVerifier))
	wantChallenge := base64.RawURLEncoding.EncodeToString(hash[:])
	if client.lastChallenge != wantChallenge {
		t.Errorf("challenge = %q, want %q", client.lastChallenge, wantChallenge)
	}
	if client.lastState != resp.State {
		t.Errorf("client saw state %q, response carries %q", client.lastState, resp.State)
	}
}

func TestAuthorize_UniqueStatePerAttempt(t *testing.T) {
	store := newMockStateStore()
	svc := newTestService(store, &mockOAuthClient{}, false)

	first, err := svc.Authorize(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Authorize(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.State == second.State {
		t.Error("expected distinct states for concurrent authorization attempts")
	}
	if store.states[first.State].CodeVerifier == store.states[second.State].CodeVerifier {
		t.Error("expected distinct code verifiers per attempt")
	}
}

func TestAuthorize_SaveFailureSwallowed(t *testing.T) {
	store := newMockStateStore()
	store.saveErr = errors.New("redis unreachable")
	svc := newTestService(store, &mockOAuthClient{}, false)

	resp, err := svc.Authorize(context.Background())
	if err != nil {
		t.Fatalf("expected save failure to be swallowed, got %v", err)
	}
	if resp.AuthorizationURL == "" {
		t.Error("expected authorization URL despite save failure")
	}
}

func TestAuthorize_SaveFailureStrict(t *testing.T) {
	store := newMockStateStore()
	store.saveErr = errors.New("redis unreachable")
	svc := newTestService(store, &mockOAuthClient{}, true)

	if _, err := svc.Authorize(context.Background()); err == nil {
		t.Fatal("expected error in strict mode")
	}
}

func TestCallback_UnknownState(t *testing.T) {
	store := newMockStateStore()
	client := &mockOAuthClient{}
	svc := newTestService(store, client, false)

	_, err := svc.Callback(context.Background(), driving.CallbackRequest{
		Code:  "code-123",
		State: "never-issued",
	})
	if err != driving.ErrOAuthInvalidState {
		t.Fatalf("expected ErrOAuthInvalidState, got %v", err)
	}
	if client.exchangeCalls != 0 {
		t.Error("token exchange must not run for an unknown state")
	}
}

func TestCallback_ExpiredState(t *testing.T) {
	store := newMockStateStore()
	store.states["state-1"] = &domain.AuthState{
		State:        "state-1",
		CodeVerifier: "verifier-1",
		CreatedAt:    time.Now().Add(-20 * time.Minute),
		ExpiresAt:    time.Now().Add(-10 * time.Minute),
	}
	client := &mockOAuthClient{}
	svc := newTestService(store, client, false)

	_, err := svc.Callback(context.Background(), driving.CallbackRequest{Code: "c", State: "state-1"})
	if err != driving.ErrOAuthInvalidState {
		t.Fatalf("expected ErrOAuthInvalidState, got %v", err)
	}
	if client.exchangeCalls != 0 {
		t.Error("token exchange must not run for an expired state")
	}
}

func TestCallback_Success(t *testing.T) {
	store := newMockStateStore()
	client := &mockOAuthClient{
		exchangeFn: func(ctx context.Context, code, codeVerifier string) (*driven.OAuthToken, error) {
			if code != "code-123" {
				t.Errorf("exchange got code %q", code)
			}
			if codeVerifier != "verifier-1" {
				t.Errorf("exchange got verifier %q, want the stored one", codeVerifier)
			}
			return &driven.OAuthToken{AccessToken: "gho_token", TokenType: "bearer", Scope: "public_repo,user:email"}, nil
		},
		getUserFn: func(ctx context.Context, token *driven.OAuthToken) (*domain.GitHubUser, error) {
			return &domain.GitHubUser{Login: "octocat", ID: 1}, nil
		},
	}
	svc := newTestService(store, client, false)
	store.states["state-1"] = &domain.AuthState{
		State:        "state-1",
		CodeVerifier: "verifier-1",
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(10 * time.Minute),
	}

	resp, err := svc.Callback(context.Background(), driving.CallbackRequest{Code: "code-123", State: "state-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Login != "octocat" {
		t.Errorf("login = %q, want octocat", resp.Login)
	}
}

func TestCallback_VerifierSingleUse(t *testing.T) {
	store := newMockStateStore()
	client := &mockOAuthClient{
		exchangeFn: func(ctx context.Context, code, codeVerifier string) (*driven.OAuthToken, error) {
			return &driven.OAuthToken{AccessToken: "gho_token", TokenType: "bearer"}, nil
		},
		getUserFn: func(ctx context.Context, token *driven.OAuthToken) (*domain.GitHubUser, error) {
			return &domain.GitHubUser{Login: "octocat"}, nil
		},
	}
	svc := newTestService(store, client, false)
	store.states["state-1"] = &domain.AuthState{
		State:        "state-1",
		CodeVerifier: "verifier-1",
		CreatedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(10 * time.Minute),
	}

	req := driving.CallbackRequest{Code: "code-123", State: "state-1"}
	if _, err := svc.Callback(context.Background(), req); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}
	if _, err := svc.Callback(context.Background(), req); err != driving.ErrOAuthInvalidState {
		t.Fatalf("second callback with the same state should fail, got %v", err)
	}
	if client.exchangeCalls != 1 {
		t.Errorf("exchange ran %d times, want 1", client.exchangeCalls)
	}
}

func TestCallback_ProviderError(t *testing.T) {
	svc := newTestService(newMockStateStore(), &mockOAuthClient{}, false)

	_, err := svc.Callback(context.Background(), driving.CallbackRequest{
		State:            "state-1",
		Error:            "access_denied",
		ErrorDescription: "The user denied access",
	})

	var oauthErr *driving.OAuthError
	if !errors.As(err, &oauthErr) {
		t.Fatalf("expected OAuthError, got %v", err)
	}
	if oauthErr.Code != "access_denied" {
		t.Errorf("code = %q, want access_denied", oauthErr.Code)
	}
}

func TestCallback_ExchangeFailure(t *testing.T) {
	store := newMockStateStore()
	client := &mockOAuthClient{
		exchangeFn: func(ctx context.Context, code, codeVerifier string) (*driven.OAuthToken, error) {
			return nil, errors.New("token endpoint unreachable")
		},
	}
	svc := newTestService(store, client, false)
	store.states["state-1"] = &domain.AuthState{
		State: "state-1", CodeVerifier: "verifier-1",
		CreatedAt: time.Now(), ExpiresAt: time.Now().Add(10 * time.Minute),
	}

	_, err := svc.Callback(context.Background(), driving.CallbackRequest{Code: "c", State: "state-1"})

	var oauthErr *driving.OAuthError
	if !errors.As(err, &oauthErr) {
		t.Fatalf("expected OAuthError, got %v", err)
	}
	if oauthErr.Code != "exchange_failed" {
		t.Errorf("code = %q, want exchange_failed", oauthErr.Code)
	}
}

func TestCallback_ProfileUnauthorized(t *testing.T) {
	store := newMockStateStore()
	client := &mockOAuthClient{
		exchangeFn: func(ctx context.Context, code, codeVerifier string) (*driven.OAuthToken, error) {
			return &driven.OAuthToken{AccessToken: "gho_token", TokenType: "bearer"}, nil
		},
		getUserFn: func(ctx context.Context, token *driven.OAuthToken) (*domain.GitHubUser, error) {
			return nil, domain.ErrUnauthorized
		},
	}
	svc := newTestService(store, client, false)
	store.states["state-1"] = &domain.AuthState{
		State: "state-1", CodeVerifier: "verifier-1",
		CreatedAt: time.Now(), ExpiresAt: time.Now().Add(10 * time.Minute),
	}

	_, err := svc.Callback(context.Background(), driving.CallbackRequest{Code: "c", State: "state-1"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized to pass through, got %v", err)
	}
}
