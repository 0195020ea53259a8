package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estatehub-backend/internal/mail"
	"github.com/angelmondragon/estatehub-backend/internal/users"
	pkgAuth "github.com/angelmondragon/estatehub-backend/pkg/auth"
	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/oauth"
	"github.com/angelmondragon/estatehub-backend/pkg/security"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "estatehub", ExpirationMinutes: 30}

type stubSessionManager struct {
	accessIDs []string
	err       error
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.accessIDs = append(s.accessIDs, accessID)
	return "refresh-" + accessID, nil
}

type authFixture struct {
	svc     Service
	repo    *users.Repository
	mailer  *mail.Recorder
	session *stubSessionManager
}

func newAuthFixture(t *testing.T, mutate func(*ServiceParams)) *authFixture {
	t.Helper()
	repo := users.NewRepository(dbtest.Open(t))
	f := &authFixture{repo: repo, mailer: &mail.Recorder{}, session: &stubSessionManager{}}
	params := ServiceParams{
		UserRepo:       repo,
		SessionManager: f.session,
		Mailer:         f.mailer,
		JWTConfig:      testJWT,
	}
	if mutate != nil {
		mutate(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestRegisterCreatesAccountAndSendsCode(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, RegisterRequest{Name: "Amal", Email: " Amal@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "amal@example.com", resp.User.Email)
	assert.False(t, resp.User.EmailVerified)
	assert.Equal(t, "refresh-"+f.session.accessIDs[0], resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, f.session.accessIDs[0], claims.ID)

	msg, ok := f.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, mail.KindVerificationCode, msg.Kind)
	stored, err := f.repo.FindByEmail(ctx, "amal@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.EmailVerificationCodeHash)
	assert.True(t, security.CodeMatches(msg.Data["code"], *stored.EmailVerificationCodeHash))
	assert.NotContains(t, stored.PasswordHash, "secret1")

	_, err = f.svc.Register(ctx, RegisterRequest{Name: "Again", Email: "amal@example.com", Password: "secret2"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.mailer.Err = errors.New("smtp down")

	resp, err := f.svc.Register(context.Background(), RegisterRequest{Name: "Omar", Email: "omar@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterRequest{Name: "Sara", Email: "sara@example.com", Password: "secret1"})
	require.NoError(t, err)

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "SARA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Sara", resp.User.Name)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "sara@example.com", Password: "wrong"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	_, err = f.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestForgotPassword(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterRequest{Name: "Nora", Email: "nora@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, ForgotPasswordRequest{Email: "nobody@example.com"}))
	sentBefore := len(f.mailer.Sent)

	f.mailer.Err = errors.New("smtp down")
	err = f.svc.ForgotPassword(ctx, ForgotPasswordRequest{Email: "nora@example.com"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))
	_, err = f.svc.Login(ctx, LoginRequest{Email: "nora@example.com", Password: "secret1"})
	require.NoError(t, err, "old password survives a failed mail")

	f.mailer.Err = nil
	require.NoError(t, f.svc.ForgotPassword(ctx, ForgotPasswordRequest{Email: "nora@example.com"}))
	require.Len(t, f.mailer.Sent, sentBefore+1)
	msg, _ := f.mailer.Last()
	assert.Equal(t, mail.KindTemporaryPassword, msg.Kind)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "nora@example.com", Password: msg.Data["password"]})
	require.NoError(t, err)
}

type stubProvider struct {
	name    enums.OAuthProvider
	profile oauth.Profile
	err     error
}

func (p stubProvider) Name() enums.OAuthProvider       { return p.name }
func (p stubProvider) AuthCodeURL(state string) string { return "https://consent.example/?state=" + state }
func (p stubProvider) Exchange(ctx context.Context, code string) (oauth.Profile, error) {
	return p.profile, p.err
}

type stubRegistry map[enums.OAuthProvider]oauth.Provider

func (r stubRegistry) Get(name enums.OAuthProvider) (oauth.Provider, error) {
	p, ok := r[name]
	if !ok {
		return nil, oauth.ErrProviderDisabled
	}
	return p, nil
}

type memoryStates struct {
	values map[string]string
}

func (m *memoryStates) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStates) GetDel(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redislib.Nil
	}
	delete(m.values, key)
	return v, nil
}

func (m *memoryStates) OAuthStateKey(state string) string { return "oauth_state:" + state }

func TestOAuthFlowCreatesThenReusesAccount(t *testing.T) {
	states := &memoryStates{values: map[string]string{}}
	google := stubProvider{name: enums.OAuthProviderGoogle, profile: oauth.Profile{
		Provider: enums.OAuthProviderGoogle, ProviderID: "g-1", Email: "G@Example.com", Name: "Ghita",
	}}
	f := newAuthFixture(t, func(p *ServiceParams) {
		p.StateStore = states
		p.Providers = stubRegistry{enums.OAuthProviderGoogle: google}
	})
	ctx := context.Background()

	url, err := f.svc.OAuthRedirectURL(ctx, "google")
	require.NoError(t, err)
	require.Len(t, states.values, 1)
	var state string
	for k := range states.values {
		state = k[len("oauth_state:"):]
	}
	assert.Contains(t, url, state)

	resp, err := f.svc.OAuthCallback(ctx, "google", state, "code")
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", resp.User.Email)
	assert.True(t, resp.User.EmailVerified)
	assert.Equal(t, enums.OAuthProviderGoogle, resp.User.OAuthProvider)

	_, err = f.svc.OAuthCallback(ctx, "google", state, "code")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized), "state is single use")

	_, err = f.svc.OAuthRedirectURL(ctx, "facebook")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = f.svc.OAuthRedirectURL(ctx, "myspace")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	url, err = f.svc.OAuthRedirectURL(ctx, "google")
	require.NoError(t, err)
	for k := range states.values {
		state = k[len("oauth_state:"):]
	}
	again, err := f.svc.OAuthCallback(ctx, "google", state, "code")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, again.User.ID)
	assert.NotEmpty(t, url)
}

type stubGoogle struct{ profile oauth.Profile }

func (s stubGoogle) VerifyIDToken(ctx context.Context, idToken string) (oauth.Profile, error) {
	if idToken != "valid" {
		return oauth.Profile{}, errors.New("bad token")
	}
	return s.profile, nil
}

type stubFacebook struct{ profile oauth.Profile }

func (s stubFacebook) VerifyAccessToken(ctx context.Context, token string) (oauth.Profile, error) {
	if token != "valid" {
		return oauth.Profile{}, errors.New("bad token")
	}
	return s.profile, nil
}

func TestMobileSignInLinksExistingEmail(t *testing.T) {
	f := newAuthFixture(t, func(p *ServiceParams) {
		p.Google = stubGoogle{profile: oauth.Profile{Provider: enums.OAuthProviderGoogle, ProviderID: "g-9", Email: "karim@example.com"}}
		p.Facebook = stubFacebook{profile: oauth.Profile{Provider: enums.OAuthProviderFacebook, ProviderID: "fb-7", Name: "No Mail"}}
	})
	ctx := context.Background()
	registered, err := f.svc.Register(ctx, RegisterRequest{Name: "Karim", Email: "karim@example.com", Password: "secret1"})
	require.NoError(t, err)

	resp, err := f.svc.GoogleMobile(ctx, GoogleMobileRequest{IDToken: "valid"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.True(t, resp.User.EmailVerified)

	stored, err := f.repo.FindByProviderID(ctx, enums.OAuthProviderGoogle, "g-9")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, stored.ID)

	_, err = f.svc.GoogleMobile(ctx, GoogleMobileRequest{IDToken: "forged"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	fb, err := f.svc.FacebookMobile(ctx, FacebookMobileRequest{AccessToken: "valid"})
	require.NoError(t, err)
	assert.Equal(t, "fb_fb-7@facebook.com", fb.User.Email)
	assert.False(t, fb.User.EmailVerified)
	assert.Equal(t, "No Mail", fb.User.Name)
}
