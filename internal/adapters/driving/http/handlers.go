package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nimbus-works/authcore/internal/core/domain"
	"github.com/nimbus-works/authcore/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady checks the database and, when configured, Redis.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// GitHub OAuth endpoints

// handleGitHubAuth starts the authorization flow: it generates the CSRF
// state and PKCE pair, then redirects the caller to GitHub. The state is
// echoed in the X-CSRF-Token header alongside the Location URL.
func (s *Server) handleGitHubAuth(w http.ResponseWriter, r *http.Request) {
	resp, err := s.oauthService.Authorize(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "authorization failed")
		return
	}

	w.Header().Set("Location", resp.AuthorizationURL)
	w.Header().Set("X-CSRF-Token", resp.State)
	w.WriteHeader(http.StatusSeeOther)
}

// handleGitHubCallback receives the provider redirect carrying code and state.
func (s *Server) handleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := driving.CallbackRequest{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}

	if req.State == "" || (req.Code == "" && req.Error == "") {
		writeError(w, http.StatusBadRequest, "missing code or state")
		return
	}

	resp, err := s.oauthService.Callback(r.Context(), req)
	if err != nil {
		var oauthErr *driving.OAuthError
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "github rejected the access token")
		case errors.Is(err, domain.ErrUnsupportedTokenType):
			writeError(w, http.StatusBadGateway, "unsupported token type")
		case errors.As(err, &oauthErr):
			if oauthErr == driving.ErrOAuthInvalidState {
				writeError(w, http.StatusBadRequest, oauthErr.Description)
				return
			}
			writeError(w, http.StatusBadGateway, oauthErr.Error())
		default:
			writeError(w, http.StatusInternalServerError, "authentication callback failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
