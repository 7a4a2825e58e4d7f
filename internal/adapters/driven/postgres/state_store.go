package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nimbus-works/authcore/internal/core/domain"
	"github.com/nimbus-works/authcore/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

// StateStore implements driven.StateStore using PostgreSQL.
// Used when no Redis instance is configured.
type StateStore struct {
	db *sql.DB
}

// NewStateStore creates a new PostgreSQL-backed auth state store.
func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db.DB}
}

// Save stores a new auth state. A zero ExpiresAt is stored as NULL,
// meaning the row never expires on its own.
func (s *StateStore) Save(ctx context.Context, state *domain.AuthState) error {
	query := `
		INSERT INTO oauth_states (state, code_verifier, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	expiresAt := sql.NullTime{}
	if !state.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: state.ExpiresAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		state.State,
		state.CodeVerifier,
		state.CreatedAt,
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("save auth state: %w", err)
	}

	return nil
}

// GetAndDelete atomically retrieves and deletes the state.
// Uses DELETE ... RETURNING for atomic single-use semantics.
func (s *StateStore) GetAndDelete(ctx context.Context, state string) (*domain.AuthState, error) {
	query := `
		DELETE FROM oauth_states
		WHERE state = $1 AND (expires_at IS NULL OR expires_at > NOW())
		RETURNING state, code_verifier, created_at, expires_at
	`

	var (
		authState domain.AuthState
		expiresAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, state).Scan(
		&authState.State,
		&authState.CodeVerifier,
		&authState.CreatedAt,
		&expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // State not found or expired
	}
	if err != nil {
		return nil, fmt.Errorf("get and delete auth state: %w", err)
	}

	if expiresAt.Valid {
		authState.ExpiresAt = expiresAt.Time
	}

	return &authState, nil
}

// Cleanup removes expired states. Expired rows are otherwise only removed
// when their state is looked up, so this should run periodically.
func (s *StateStore) Cleanup(ctx context.Context) error {
	query := `DELETE FROM oauth_states WHERE expires_at IS NOT NULL AND expires_at < NOW()`

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("cleanup auth states: %w", err)
	}

	return nil
}
