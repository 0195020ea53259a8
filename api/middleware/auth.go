package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/estatehub-backend/api/responses"
	pkgAuth "github.com/angelmondragon/estatehub-backend/pkg/auth"
	"github.com/angelmondragon/estatehub-backend/pkg/auth/session"
	"github.com/angelmondragon/estatehub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

// tokenSource pulls a raw access token from a request, "" when absent.
type tokenSource func(*http.Request) string

// Auth requires a valid bearer token whose session is still open.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return guard{cfg: cfg, sessions: sessions, logg: logg, sources: []tokenSource{BearerToken}}.middleware
}

// SocketAuth also accepts ?token=, since browsers cannot set headers on a
// websocket handshake.
func SocketAuth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	query := func(r *http.Request) string { return strings.TrimSpace(r.URL.Query().Get("token")) }
	return guard{cfg: cfg, sessions: sessions, logg: logg, sources: []tokenSource{BearerToken, query}}.middleware
}

// BearerToken reads the Authorization header; the Bearer scheme is optional.
func BearerToken(r *http.Request) string {
	value := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, rest, ok := strings.Cut(value, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	return value
}

type guard struct {
	cfg      config.JWTConfig
	sessions session.AccessSessionChecker
	logg     *logger.Logger
	sources  []tokenSource
}

func (g guard) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.authenticate(r)
		if err != nil {
			responses.WriteError(r.Context(), g.logg, w, err)
			return
		}

		ctx := WithPrincipal(r.Context(), principal)
		ctx = g.logg.WithUserID(ctx, principal.UserID)
		ctx = g.logg.WithActorRole(ctx, string(principal.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g guard) authenticate(r *http.Request) (Principal, error) {
	var raw string
	for _, source := range g.sources {
		if raw = source(r); raw != "" {
			break
		}
	}
	if raw == "" {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized, no token")
	}

	claims, err := pkgAuth.ParseAccessToken(g.cfg, raw)
	if err != nil {
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Not authorized, token failed")
	}
	if claims.ID == "" {
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized, token has no session")
	}

	if g.sessions != nil {
		open, err := g.sessions.HasSession(r.Context(), claims.ID)
		if err != nil {
			return Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session lookup")
		}
		if !open {
			return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized, session ended")
		}
	}
	return Principal{UserID: claims.UserID.String(), Role: claims.Role, SessionID: claims.ID}, nil
}
