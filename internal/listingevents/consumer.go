package listingevents

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/metrics"
)

const jobNotifySavedSearches = "notify_saved_searches"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// Handler reacts to a newly created listing.
type Handler interface {
	PropertyCreated(ctx context.Context, propertyID uuid.UUID) error
}

type ConsumerParams struct {
	Subscription receiver
	Handler      Handler
	Metrics      *metrics.JobMetrics
	Logger       *logger.Logger
}

// Consumer dispatches listing events from a subscription.
type Consumer struct {
	sub     receiver
	handler Handler
	metrics *metrics.JobMetrics
	logg    *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Subscription == nil {
		return nil, errors.New("listings subscription is required")
	}
	if params.Handler == nil {
		return nil, errors.New("listing event handler is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		sub:     params.Subscription,
		handler: params.Handler,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.sub.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		if c.process(ctx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes[attrEventType],
	})

	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		c.logg.Error(logCtx, "listingevents.decode_failed", err)
		return processResult{ack: true}
	}
	if env.EventType != EventPropertyCreated {
		c.logg.Info(logCtx, "listingevents.skipped")
		return processResult{ack: true}
	}
	payload, err := decodePropertyCreated(env)
	if err != nil {
		c.logg.Error(logCtx, "listingevents.decode_failed", err)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":    env.EventID.String(),
		"property_id": payload.PropertyID.String(),
	})
	started := time.Now()
	err = c.handler.PropertyCreated(logCtx, payload.PropertyID)
	c.metrics.Observe(jobNotifySavedSearches, started, err)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			c.logg.Warn(logCtx, "listingevents.property_missing")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "listingevents.handle_failed", err)
		return processResult{nack: true}
	}
	c.logg.Info(logCtx, "listingevents.handled")
	return processResult{ack: true}
}
