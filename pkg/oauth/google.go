package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// IDTokenValidator checks a Google id token for the given audience.
type IDTokenValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type Google struct {
	cfg         *oauth2.Config
	userInfoURL string
	validate    IDTokenValidator
}

// NewGoogle returns nil when no client id is configured.
func NewGoogle(cfg config.OAuthConfig) *Google {
	if cfg.GoogleClientID == "" {
		return nil
	}
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		validate:    idtoken.Validate,
	}
}

func (g *Google) Name() enums.OAuthProvider {
	return enums.OAuthProviderGoogle
}

func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *Google) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("google code exchange: %w", err)
	}

	var info struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, httpClient(ctx, g.cfg, tok), g.userInfoURL, &info); err != nil {
		return Profile{}, fmt.Errorf("google userinfo: %w", err)
	}
	if info.Sub == "" {
		return Profile{}, fmt.Errorf("google userinfo: missing subject")
	}
	return Profile{
		Provider:   enums.OAuthProviderGoogle,
		ProviderID: info.Sub,
		Email:      info.Email,
		Name:       info.Name,
		Photo:      info.Picture,
	}, nil
}

// VerifyIDToken validates an id token issued to the mobile app.
func (g *Google) VerifyIDToken(ctx context.Context, idToken string) (Profile, error) {
	payload, err := g.validate(ctx, idToken, g.cfg.ClientID)
	if err != nil {
		return Profile{}, fmt.Errorf("google id token: %w", err)
	}
	claim := func(key string) string {
		v, _ := payload.Claims[key].(string)
		return v
	}
	return Profile{
		Provider:   enums.OAuthProviderGoogle,
		ProviderID: payload.Subject,
		Email:      claim("email"),
		Name:       claim("name"),
		Photo:      claim("picture"),
	}, nil
}
