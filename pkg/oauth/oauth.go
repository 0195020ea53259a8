// Package oauth wraps the Google and Facebook consent flows and the mobile
// token verification used for social login.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

const httpTimeout = 10 * time.Second

// ErrProviderDisabled is returned for a provider without client credentials.
var ErrProviderDisabled = errors.New("oauth provider not configured")

// Profile is the identity returned by a provider.
type Profile struct {
	Provider   enums.OAuthProvider
	ProviderID string
	Email      string
	Name       string
	Photo      string
}

// Provider drives one web consent flow.
type Provider interface {
	Name() enums.OAuthProvider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Profile, error)
}

// Providers resolves the configured web providers by name.
type Providers struct {
	byName map[enums.OAuthProvider]Provider
}

// NewProviders registers the providers that are configured; nil ones are skipped.
func NewProviders(google *Google, facebook *Facebook) *Providers {
	p := &Providers{byName: map[enums.OAuthProvider]Provider{}}
	if google != nil {
		p.byName[google.Name()] = google
	}
	if facebook != nil {
		p.byName[facebook.Name()] = facebook
	}
	return p
}

// Get returns the provider or ErrProviderDisabled.
func (p *Providers) Get(name enums.OAuthProvider) (Provider, error) {
	if p == nil {
		return nil, ErrProviderDisabled
	}
	provider, ok := p.byName[name]
	if !ok {
		return nil, ErrProviderDisabled
	}
	return provider, nil
}

func httpClient(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: httpTimeout})
	return cfg.Client(ctx, tok)
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
