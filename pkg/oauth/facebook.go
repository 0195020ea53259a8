package oauth

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

const facebookGraphURL = "https://graph.facebook.com/v19.0"

type Facebook struct {
	cfg      *oauth2.Config
	graphURL string
}

// NewFacebook returns nil when no app id is configured.
func NewFacebook(cfg config.OAuthConfig) *Facebook {
	if cfg.FacebookAppID == "" {
		return nil
	}
	return &Facebook{
		cfg: &oauth2.Config{
			ClientID:     cfg.FacebookAppID,
			ClientSecret: cfg.FacebookAppSecret,
			RedirectURL:  cfg.FacebookCallbackURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
		graphURL: facebookGraphURL,
	}
}

func (f *Facebook) Name() enums.OAuthProvider {
	return enums.OAuthProviderFacebook
}

func (f *Facebook) AuthCodeURL(state string) string {
	return f.cfg.AuthCodeURL(state)
}

func (f *Facebook) Exchange(ctx context.Context, code string) (Profile, error) {
	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("facebook code exchange: %w", err)
	}
	return f.profile(ctx, tok)
}

// VerifyAccessToken resolves the profile behind an access token obtained by
// the mobile SDK. A token the graph API rejects is an error.
func (f *Facebook) VerifyAccessToken(ctx context.Context, accessToken string) (Profile, error) {
	return f.profile(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

func (f *Facebook) profile(ctx context.Context, tok *oauth2.Token) (Profile, error) {
	var me struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	q := url.Values{"fields": {"id,name,email,picture.type(large)"}}
	if err := getJSON(ctx, httpClient(ctx, f.cfg, tok), f.graphURL+"/me?"+q.Encode(), &me); err != nil {
		return Profile{}, fmt.Errorf("facebook graph: %w", err)
	}
	if me.ID == "" {
		return Profile{}, fmt.Errorf("facebook graph: missing id")
	}
	return Profile{
		Provider:   enums.OAuthProviderFacebook,
		ProviderID: me.ID,
		Email:      me.Email,
		Name:       me.Name,
		Photo:      me.Picture.Data.URL,
	}, nil
}
