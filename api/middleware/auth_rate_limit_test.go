package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

type counterStore struct {
	mu     sync.Mutex
	counts map[string]int64
	ttls   map[string]time.Duration
}

func newCounterStore() *counterStore {
	return &counterStore{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (c *counterStore) RateLimitKey(parts ...string) string { return strings.Join(parts, ":") }

func (c *counterStore) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	c.ttls[key] = ttl
	return c.counts[key], nil
}

func attempt(h http.Handler, path, body, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimitBodyStillReadable(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 5, 5)
	var seen string
	h := AuthRateLimit(policy, newCounterStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
	}))

	attempt(h, "/api/auth/login", `{"email":"a@b.co","password":"x"}`, "1.2.3.4:1")
	assert.JSONEq(t, `{"email":"a@b.co","password":"x"}`, seen)
}

func TestAuthRateLimitCounters(t *testing.T) {
	cases := []struct {
		name    string
		ipLimit int
		email   int
		remotes []string
		wantOK  int
	}{
		{name: "email budget spans addresses", email: 2, remotes: []string{"1.1.1.1:1", "2.2.2.2:1", "3.3.3.3:1"}, wantOK: 2},
		{name: "ip budget", ipLimit: 1, remotes: []string{"5.6.7.8:1", "5.6.7.8:2"}, wantOK: 1},
		{name: "separate ips", ipLimit: 1, remotes: []string{"5.6.7.8:1", "9.9.9.9:1"}, wantOK: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			policy := NewAuthRateLimitPolicy("login", time.Minute, tc.ipLimit, tc.email)
			h := AuthRateLimit(policy, newCounterStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			ok := 0
			var last *httptest.ResponseRecorder
			for _, remote := range tc.remotes {
				last = attempt(h, "/api/auth/login", `{"email":"same@example.com"}`, remote)
				if last.Code == http.StatusOK {
					ok++
				}
			}
			assert.Equal(t, tc.wantOK, ok)
			if ok < len(tc.remotes) {
				assert.Equal(t, http.StatusTooManyRequests, last.Code)
				assert.Equal(t, "60", last.Header().Get("Retry-After"))

				var payload struct {
					Success bool   `json:"success"`
					Code    string `json:"code"`
				}
				require.NoError(t, json.Unmarshal(last.Body.Bytes(), &payload))
				assert.False(t, payload.Success)
				assert.Equal(t, string(pkgerrors.CodeRateLimit), payload.Code)
			}
		})
	}
}

func TestAuthRateLimitPoliciesAreIsolated(t *testing.T) {
	store := newCounterStore()
	login, register, reset := AuthRateLimitPolicies(config.AuthRateLimitConfig{
		LoginWindow: time.Minute, LoginIPLimit: 1,
		RegisterWindow: 5 * time.Minute, RegisterIPLimit: 1,
	})
	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	for _, policy := range []AuthRateLimitPolicy{login, register} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/"+policy.Name(), strings.NewReader(`{}`))
		req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		AuthRateLimit(policy, store, nil)(noop).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, policy.Name())
	}
	assert.Equal(t, int64(1), store.counts["login:ip:9.9.9.9"])
	assert.Equal(t, int64(1), store.counts["register:ip:9.9.9.9"])
	assert.Equal(t, 5*time.Minute, store.ttls["register:ip:9.9.9.9"])
	assert.False(t, reset.active(), "reset has no window configured")
}

func TestAuthRateLimitEmailKeyIsHashedAndCaseInsensitive(t *testing.T) {
	store := newCounterStore()
	h := AuthRateLimit(NewAuthRateLimitPolicy("reset", time.Minute, 0, 1), store, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	attempt(h, "/api/auth/forgot-password", `{"email":"Someone@Example.com"}`, "1.1.1.1:1")
	rec := attempt(h, "/api/auth/forgot-password", `{"email":" someone@example.com "}`, "1.1.1.1:1")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Len(t, store.counts, 1)
	for key := range store.counts {
		assert.NotContains(t, key, "example.com")
	}
}
