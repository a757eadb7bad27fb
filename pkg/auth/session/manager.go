// Package session keeps one Redis entry per issued access token, keyed by the
// token's jti, so tokens can be revoked before they expire.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/tms-backend/pkg/config"
	redisclient "github.com/angelmondragon/tms-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var errMissingAccessID = errors.New("access id is required")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(accessID string) string
}

// Manager stores and revokes access sessions.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker is what the auth middleware consults per request.
type AccessSessionChecker interface {
	Verify(ctx context.Context, accessID string, userID uuid.UUID) (bool, error)
}

// NewManager sizes sessions to the access token lifetime.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	ttl := cfg.TokenTTL()
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &Manager{store: client, keyer: client, ttl: ttl}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", errMissingAccessID
	}
	return m.keyer.SessionKey(accessID), nil
}

// Start records that accessID was issued to userID.
func (m *Manager) Start(ctx context.Context, accessID string, userID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, userID.String(), m.ttl)
}

// Revoke ends the session. Revoking an unknown session is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Owner returns the user the session was issued to, or uuid.Nil when the
// session has expired or was revoked.
func (m *Manager) Owner(ctx context.Context, accessID string) (uuid.UUID, error) {
	key, err := m.key(accessID)
	if err != nil {
		return uuid.Nil, err
	}
	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, redislib.Nil) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	owner, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session %s holds malformed owner: %w", accessID, err)
	}
	return owner, nil
}

// Verify reports whether accessID is live and was issued to userID. A token
// whose jti points at another user's session is treated as revoked.
func (m *Manager) Verify(ctx context.Context, accessID string, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	owner, err := m.Owner(ctx, accessID)
	if err != nil {
		return false, err
	}
	return owner == userID, nil
}

// NewAccessID mints the jti shared by the token and its session entry.
func NewAccessID() string {
	return uuid.NewString()
}
