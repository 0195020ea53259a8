package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/angelmondragon/estatehub-backend/pkg/stripe"
)

// IntentClient is the subset of Stripe used to open payment intents.
type IntentClient interface {
	Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeIntentClient struct{}

// NewStripeClient returns an IntentClient backed by the configured Stripe
// account, or nil when Stripe is not configured.
func NewStripeClient(api *pkgstripe.Client) IntentClient {
	if api == nil {
		return nil
	}
	return &stripeIntentClient{}
}

func (c *stripeIntentClient) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}
