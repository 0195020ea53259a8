// Package session tracks refresh sessions in Redis. Each access token jti owns
// at most one refresh secret; a jti with no record is treated as logged out.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	redisclient "github.com/angelmondragon/estatehub-backend/pkg/redis"
)

const secretBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	errMissingAccessID     = errors.New("access id is required")
)

// store is the slice of the redis client a Manager needs. GetDel makes a
// refresh secret single-use even under concurrent rotation.
type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware needs to reject access
// tokens whose session was revoked.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// record is the JSON value stored per jti. Only a digest of the refresh
// secret is kept so a Redis dump cannot be replayed.
type record struct {
	Digest   string    `json:"digest"`
	IssuedAt time.Time `json:"issued_at"`
}

type Manager struct {
	kv  store
	ttl time.Duration
	now func() time.Time
}

// NewManager requires a refresh TTL strictly longer than the access TTL so a
// client can always refresh before its session disappears.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("session manager: redis client is required")
	}
	refresh, access := cfg.RefreshTokenTTL(), cfg.AccessTTL()
	switch {
	case refresh <= 0:
		return nil, errors.New("session manager: refresh token ttl must be positive")
	case refresh <= access:
		return nil, fmt.Errorf("session manager: refresh ttl %s must exceed access ttl %s", refresh, access)
	}
	return newManager(client, refresh), nil
}

func newManager(kv store, ttl time.Duration) *Manager {
	return &Manager{kv: kv, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// NewAccessID returns a fresh jti.
func NewAccessID() string {
	return uuid.NewString()
}

// Generate opens a session for accessID and returns the refresh secret that
// must accompany it on rotation.
func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	if blank(accessID) {
		return "", errMissingAccessID
	}
	return m.open(ctx, accessID)
}

// Rotate consumes the session of oldAccessID when provided matches its
// secret and opens a new one. The old secret cannot be used again whether
// or not it matched.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if blank(oldAccessID) || blank(provided) {
		return "", "", ErrInvalidRefreshToken
	}

	raw, err := m.kv.GetDel(ctx, m.kv.AccessSessionKey(oldAccessID))
	if errors.Is(err, redislib.Nil) {
		return "", "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", "", fmt.Errorf("load session: %w", err)
	}

	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return "", "", ErrInvalidRefreshToken
	}
	if subtle.ConstantTimeCompare([]byte(rec.Digest), []byte(digest(provided))) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	accessID := NewAccessID()
	secret, err := m.open(ctx, accessID)
	if err != nil {
		return "", "", err
	}
	return accessID, secret, nil
}

// Revoke ends the session; revoking an unknown jti is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if blank(accessID) {
		return errMissingAccessID
	}
	return m.kv.Del(ctx, m.kv.AccessSessionKey(accessID))
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if blank(accessID) {
		return false, errMissingAccessID
	}
	_, err := m.kv.Get(ctx, m.kv.AccessSessionKey(accessID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redislib.Nil):
		return false, nil
	default:
		return false, err
	}
}

func (m *Manager) open(ctx context.Context, accessID string) (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("refresh secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(buf)

	payload, err := json.Marshal(record{Digest: digest(secret), IssuedAt: m.now()})
	if err != nil {
		return "", err
	}
	if err := m.kv.Set(ctx, m.kv.AccessSessionKey(accessID), string(payload), m.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return secret, nil
}

func digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
