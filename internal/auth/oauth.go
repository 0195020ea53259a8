package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/oauth"
	redisclient "github.com/angelmondragon/estatehub-backend/pkg/redis"
)

const defaultStateTTL = 10 * time.Minute

// OAuthRedirectURL stores a one-time state for the provider and returns the
// consent page URL carrying it.
func (s *service) OAuthRedirectURL(ctx context.Context, providerName string) (string, error) {
	provider, err := s.provider(providerName)
	if err != nil {
		return "", err
	}
	if s.states == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "oauth state store unavailable")
	}

	state, err := newState()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate oauth state")
	}
	ttl := s.stateTTL
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	ok, err := s.states.SetNX(ctx, s.states.OAuthStateKey(state), string(provider.Name()), ttl)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store oauth state")
	}
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "oauth state collision")
	}
	return provider.AuthCodeURL(state), nil
}

// OAuthCallback consumes the state, exchanges the code and signs the matching
// account in, creating it on first use.
func (s *service) OAuthCallback(ctx context.Context, providerName, state, code string) (*AuthResponse, error) {
	provider, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(state) == "" || strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing oauth state or code")
	}
	if s.states == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "oauth state store unavailable")
	}

	stored, err := s.states.GetDel(ctx, s.states.OAuthStateKey(state))
	if err != nil {
		if redisclient.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid oauth state")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load oauth state")
	}
	if stored != string(provider.Name()) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid oauth state")
	}

	profile, err := provider.Exchange(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "oauth exchange failed")
	}
	return s.signInProfile(ctx, profile)
}

func (s *service) GoogleMobile(ctx context.Context, req GoogleMobileRequest) (*AuthResponse, error) {
	if s.google == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "google sign-in is not configured")
	}
	profile, err := s.google.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid google token")
	}
	return s.signInProfile(ctx, profile)
}

func (s *service) FacebookMobile(ctx context.Context, req FacebookMobileRequest) (*AuthResponse, error) {
	if s.facebook == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "facebook sign-in is not configured")
	}
	profile, err := s.facebook.VerifyAccessToken(ctx, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid facebook token")
	}
	return s.signInProfile(ctx, profile)
}

func (s *service) provider(name string) (oauth.Provider, error) {
	parsed, err := enums.ParseOAuthProvider(name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unknown oauth provider")
	}
	if s.providers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s sign-in is not configured", parsed))
	}
	provider, err := s.providers.Get(parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("%s sign-in is not configured", parsed))
	}
	return provider, nil
}

func (s *service) signInProfile(ctx context.Context, profile oauth.Profile) (*AuthResponse, error) {
	user, err := s.findOrCreate(ctx, profile)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return s.issue(ctx, user)
}

// findOrCreate resolves a social identity: by provider id first, then by a
// verified email (linking the identity to the existing account), else a new
// account is created.
func (s *service) findOrCreate(ctx context.Context, profile oauth.Profile) (*models.User, error) {
	if profile.ProviderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "oauth profile has no id")
	}

	user, err := s.users.FindByProviderID(ctx, profile.Provider, profile.ProviderID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup social account")
	}

	email := normalizeEmail(profile.Email)
	if email != "" {
		user, err := s.users.FindByEmail(ctx, email)
		if err == nil {
			return s.link(ctx, user, profile)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
	}

	verified := email != ""
	if email == "" {
		email = fmt.Sprintf("%s_%s@%s.com", providerShort(profile.Provider), profile.ProviderID, profile.Provider)
	}
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	if len([]rune(name)) > 50 {
		name = string([]rune(name)[:50])
	}

	user = models.NewUser(name, email, "", profile.Provider, s.now())
	user.EmailVerified = verified
	if profile.Photo != "" {
		user.Photo = profile.Photo
	}
	providerID := profile.ProviderID
	if profile.Provider == enums.OAuthProviderFacebook {
		user.FacebookID = &providerID
	} else {
		user.GoogleID = &providerID
	}

	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "account already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create social account")
	}
	return user, nil
}

func (s *service) link(ctx context.Context, user *models.User, profile oauth.Profile) (*models.User, error) {
	column := "google_id"
	if profile.Provider == enums.OAuthProviderFacebook {
		column = "facebook_id"
	}
	updates := map[string]any{column: profile.ProviderID, "email_verified": true}
	if err := s.users.Update(ctx, user.ID, db.WithUpdatedTimestamp(updates, s.now())); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link social account")
	}
	linked, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload linked account")
	}
	return linked, nil
}

func providerShort(p enums.OAuthProvider) string {
	if p == enums.OAuthProviderFacebook {
		return "fb"
	}
	return "google"
}

func newState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
