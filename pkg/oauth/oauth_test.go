package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

func TestProvidersSkipUnconfigured(t *testing.T) {
	cfg := config.OAuthConfig{GoogleClientID: "gid", GoogleClientSecret: "gsecret", GoogleCallbackURL: "http://localhost/cb"}
	providers := NewProviders(NewGoogle(cfg), NewFacebook(cfg))

	g, err := providers.Get(enums.OAuthProviderGoogle)
	require.NoError(t, err)
	u, err := url.Parse(g.AuthCodeURL("state-1"))
	require.NoError(t, err)
	assert.Equal(t, "state-1", u.Query().Get("state"))
	assert.Equal(t, "gid", u.Query().Get("client_id"))

	_, err = providers.Get(enums.OAuthProviderFacebook)
	assert.ErrorIs(t, err, ErrProviderDisabled)
}

func TestFacebookVerifyAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
			return
		}
		assert.True(t, strings.HasSuffix(r.URL.Path, "/me"))
		_, _ = w.Write([]byte(`{"id":"fb-1","name":"Sara","email":"sara@example.com","picture":{"data":{"url":"http://img/sara.png"}}}`))
	}))
	defer srv.Close()

	fb := NewFacebook(config.OAuthConfig{FacebookAppID: "app"})
	fb.graphURL = srv.URL

	profile, err := fb.VerifyAccessToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, Profile{
		Provider:   enums.OAuthProviderFacebook,
		ProviderID: "fb-1",
		Email:      "sara@example.com",
		Name:       "Sara",
		Photo:      "http://img/sara.png",
	}, profile)

	_, err = fb.VerifyAccessToken(context.Background(), "bad")
	assert.Error(t, err)
}

func TestGoogleVerifyIDToken(t *testing.T) {
	g := NewGoogle(config.OAuthConfig{GoogleClientID: "gid"})
	g.validate = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		if token != "valid" || audience != "gid" {
			return nil, errors.New("invalid token")
		}
		return &idtoken.Payload{Subject: "g-1", Claims: map[string]any{"email": "a@b.c", "name": "Ali"}}, nil
	}

	profile, err := g.VerifyIDToken(context.Background(), "valid")
	require.NoError(t, err)
	assert.Equal(t, "g-1", profile.ProviderID)
	assert.Equal(t, "a@b.c", profile.Email)
	assert.Equal(t, "", profile.Photo)

	_, err = g.VerifyIDToken(context.Background(), "forged")
	assert.Error(t, err)
}

func TestGoogleExchangeUsesUserInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"sub":"g-2","email":"web@example.com","name":"Web","picture":"http://img/web.png"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewGoogle(config.OAuthConfig{GoogleClientID: "gid", GoogleClientSecret: "s"})
	g.cfg.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	g.userInfoURL = srv.URL + "/userinfo"

	profile, err := g.Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	assert.Equal(t, "g-2", profile.ProviderID)
	assert.Equal(t, enums.OAuthProviderGoogle, profile.Provider)
}
