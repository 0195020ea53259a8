// Package payments opens payment intents for visit deposits.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

const defaultCurrency = "usd"

// CreateIntentRequest carries an amount in the currency's minor unit.
type CreateIntentRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
}

type IntentDTO struct {
	ClientSecret string `json:"clientSecret"`
}

type Service interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*IntentDTO, error)
}

type service struct {
	client IntentClient
	logg   *logger.Logger
}

func NewService(client IntentClient, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("payment intent client is required")
	}
	return &service{client: client, logg: logg}, nil
}

// CreateIntent asks the provider for a payment intent. Provider rejections
// are reported as validation errors carrying the provider's message.
func (s *service) CreateIntent(ctx context.Context, req CreateIntentRequest) (*IntentDTO, error) {
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	intent, err := s.client.Create(ctx, &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(currency),
	})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, stripeErr.Msg)
		}
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "currency", currency), "payments.create_intent_failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return &IntentDTO{ClientSecret: intent.ClientSecret}, nil
}
