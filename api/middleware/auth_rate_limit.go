package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/estatehub-backend/api/responses"
	"github.com/angelmondragon/estatehub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// counter is one fixed-window budget inside a policy, keyed by whatever
// identify extracts from the request. An empty identity skips the counter.
type counter struct {
	scope    string
	limit    int64
	identify func(r *http.Request, body []byte) string
	readBody bool
}

// AuthRateLimitPolicy groups the counters guarding one auth surface.
type AuthRateLimitPolicy struct {
	name     string
	window   time.Duration
	counters []counter
}

// NewAuthRateLimitPolicy limits attempts per client IP and per submitted
// email within window. A zero limit disables that counter.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	p := AuthRateLimitPolicy{name: strings.ToLower(strings.TrimSpace(name)), window: window}
	if p.name == "" {
		p.name = "auth"
	}
	if ipLimit > 0 {
		p.counters = append(p.counters, counter{scope: "ip", limit: int64(ipLimit), identify: remoteIP})
	}
	if emailLimit > 0 {
		p.counters = append(p.counters, counter{scope: "email", limit: int64(emailLimit), identify: emailDigest, readBody: true})
	}
	return p
}

// AuthRateLimitPolicies returns the login, registration and password-reset policies.
func AuthRateLimitPolicies(cfg config.AuthRateLimitConfig) (login, register, reset AuthRateLimitPolicy) {
	return NewAuthRateLimitPolicy("login", cfg.LoginWindow, cfg.LoginIPLimit, cfg.LoginEmailLimit),
		NewAuthRateLimitPolicy("register", cfg.RegisterWindow, cfg.RegisterIPLimit, cfg.RegisterEmailLimit),
		NewAuthRateLimitPolicy("reset", cfg.ResetWindow, cfg.ResetIPLimit, cfg.ResetEmailLimit)
}

func (p AuthRateLimitPolicy) Name() string { return p.name }

func (p AuthRateLimitPolicy) active() bool { return p.window > 0 && len(p.counters) > 0 }

func (p AuthRateLimitPolicy) needsBody() bool {
	for _, c := range p.counters {
		if c.readBody {
			return true
		}
	}
	return false
}

// AuthRateLimit throttles credential endpoints. Every counter of the policy
// is charged on each request; the first one over budget answers 429 with a
// Retry-After of one window.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || !policy.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if policy.needsBody() {
				var err error
				if body, err = io.ReadAll(r.Body); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			for _, c := range policy.counters {
				id := c.identify(r, body)
				if id == "" {
					continue
				}
				attempts, err := store.IncrWithTTL(ctx, store.RateLimitKey(policy.name, c.scope, id), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if attempts > c.limit {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":   policy.name,
						"scope":    c.scope,
						"subject":  id,
						"attempts": attempts,
						"limit":    c.limit,
					}), "auth.rate_limited")
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many attempts, please try again later"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// remoteIP prefers the first X-Forwarded-For hop, as the API runs behind a
// load balancer.
func remoteIP(r *http.Request, _ []byte) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// emailDigest keys counters by a hash so addresses never land in Redis.
func emailDigest(_ *http.Request, body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
