package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	redisclient "github.com/angelmondragon/estatehub-backend/pkg/redis"
)

type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (m *memoryKV) GetDel(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	delete(m.data, key)
	return v, nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryKV) AccessSessionKey(accessID string) string { return "sess:" + accessID }

func TestGenerateStoresDigestOnly(t *testing.T) {
	kv := newMemoryKV()
	m := newManager(kv, time.Hour)

	secret, err := m.Generate(context.Background(), "jti-1")
	require.NoError(t, err)

	raw := kv.data["sess:jti-1"]
	assert.NotContains(t, raw, secret)
	var rec record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, digest(secret), rec.Digest)
	assert.Equal(t, time.Hour, kv.ttls["sess:jti-1"])

	_, err = m.Generate(context.Background(), "  ")
	assert.Error(t, err)
}

func TestRotateIsSingleUse(t *testing.T) {
	kv := newMemoryKV()
	m := newManager(kv, time.Hour)
	ctx := context.Background()

	secret, err := m.Generate(ctx, "jti-1")
	require.NoError(t, err)

	nextID, nextSecret, err := m.Rotate(ctx, "jti-1", secret)
	require.NoError(t, err)
	assert.NotEqual(t, "jti-1", nextID)
	assert.NotContains(t, kv.data, "sess:jti-1")

	ok, err := m.HasSession(ctx, nextID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = m.Rotate(ctx, "jti-1", secret)
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken))

	_, _, err = m.Rotate(ctx, nextID, nextSecret)
	assert.NoError(t, err)
}

func TestRotateWrongSecretBurnsSession(t *testing.T) {
	m := newManager(newMemoryKV(), time.Hour)
	ctx := context.Background()

	secret, err := m.Generate(ctx, "jti-2")
	require.NoError(t, err)

	_, _, err = m.Rotate(ctx, "jti-2", "guess")
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken))

	_, _, err = m.Rotate(ctx, "jti-2", secret)
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken))

	_, _, err = m.Rotate(ctx, "", secret)
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken))
}

func TestRevokeEndsSession(t *testing.T) {
	m := newManager(newMemoryKV(), time.Hour)
	ctx := context.Background()

	_, err := m.Generate(ctx, "jti-3")
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, "jti-3"))

	ok, err := m.HasSession(ctx, "jti-3")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Revoke(ctx, "jti-3"))
	_, err = m.HasSession(ctx, " ")
	assert.Error(t, err)
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{ExpirationMinutes: 10, RefreshTokenTTLMinutes: 60})
	assert.Error(t, err)

	_, err = NewManager(&redisclient.Client{}, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30})
	assert.Error(t, err)

	m, err := NewManager(&redisclient.Client{}, config.JWTConfig{ExpirationMinutes: 10, RefreshTokenTTLMinutes: 60})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.ttl)
}
