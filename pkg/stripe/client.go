// Package stripe owns the process-wide Stripe configuration used by the
// payments service.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = errors.New(`stripe environment must be "test" or "live"`)
)

// keyModes maps secret and restricted key prefixes to the account mode
// they operate in.
var keyModes = map[string]string{
	"sk_test_": "test",
	"rk_test_": "test",
	"sk_live_": "live",
	"rk_live_": "live",
}

type Client struct {
	api         *stripe.Client
	environment string
}

// NewClient checks that the key belongs to the configured environment and
// sets the package-level key used by the stripe resource packages.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}
	env := cfg.Environment()
	if env != "test" && env != "live" {
		return nil, errInvalidStripeEnv
	}
	if mode := modeOf(key); mode != env {
		return nil, fmt.Errorf("stripe: %s environment cannot use a %s key", env, describe(mode))
	}

	stripe.Key = key
	c := &Client{api: stripe.NewClient(key), environment: env}
	logg.Info(logg.WithField(ctx, "stripe_env", env), "stripe.ready")
	return c, nil
}

func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment is "test" or "live".
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

func modeOf(key string) string {
	for prefix, mode := range keyModes {
		if strings.HasPrefix(key, prefix) {
			return mode
		}
	}
	return ""
}

func describe(mode string) string {
	if mode == "" {
		return "non-secret"
	}
	return mode
}
