package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nimbus-works/authcore/internal/core/domain"
	"github.com/nimbus-works/authcore/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.StateStore = (*StateStore)(nil)

const statePrefix = "oauth:state:"

// StateStore implements driven.StateStore using Redis.
// When the auth state carries an expiry it is enforced with a Redis TTL;
// without one the key persists until the server's own eviction policy ages it out.
type StateStore struct {
	client *redis.Client
}

// NewStateStore creates a new Redis-backed StateStore
func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Save stores an auth state keyed by its CSRF state value
func (s *StateStore) Save(ctx context.Context, state *domain.AuthState) error {
	var ttl time.Duration
	if !state.ExpiresAt.IsZero() {
		ttl = time.Until(state.ExpiresAt)
		if ttl <= 0 {
			// State already expired, don't save
			return nil
		}
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal auth state: %w", err)
	}

	if err := s.client.Set(ctx, statePrefix+state.State, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save auth state: %w", err)
	}

	return nil
}

// GetAndDelete atomically retrieves and deletes an auth state via GETDEL.
// Returns nil, nil when the key is missing or has expired.
func (s *StateStore) GetAndDelete(ctx context.Context, state string) (*domain.AuthState, error) {
	data, err := s.client.GetDel(ctx, statePrefix+state).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auth state: %w", err)
	}

	var authState domain.AuthState
	if err := json.Unmarshal(data, &authState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth state: %w", err)
	}

	return &authState, nil
}

// Ping checks if the Redis backend is healthy.
func (s *StateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
