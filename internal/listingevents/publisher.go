package listingevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

const defaultPublishTimeout = 15 * time.Second

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type gcpPublisher struct {
	pub *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return g.pub.Publish(ctx, msg)
}

// NewGCPPublisher adapts a Pub/Sub publisher for use by Publisher.
func NewGCPPublisher(pub *gcppubsub.Publisher) publisher {
	if pub == nil {
		return nil
	}
	return gcpPublisher{pub: pub}
}

type PublisherParams struct {
	Publisher publisher
	Logger    *logger.Logger
	Timeout   time.Duration
	Now       func() time.Time
}

// Publisher emits listing events. It satisfies the property creation hook.
type Publisher struct {
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewPublisher(params PublisherParams) (*Publisher, error) {
	if params.Publisher == nil {
		return nil, errors.New("pubsub publisher is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Publisher{pub: params.Publisher, logg: params.Logger, timeout: timeout, now: now}, nil
}

// PropertyCreated publishes a property.created event and waits for the
// server acknowledgement.
func (p *Publisher) PropertyCreated(ctx context.Context, propertyID uuid.UUID) error {
	env, err := newEnvelope(EventPropertyCreated, PropertyCreated{PropertyID: propertyID}, p.now())
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := p.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			attrEventType: env.EventType,
			attrEventID:   env.EventID.String(),
		},
	})
	serverID, err := result.Get(publishCtx)
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"event_id":    env.EventID.String(),
		"event_type":  env.EventType,
		"property_id": propertyID.String(),
	})
	if err != nil {
		p.logg.Error(logCtx, "listingevents.publish_failed", err)
		return fmt.Errorf("publish %s: %w", env.EventType, err)
	}
	p.logg.Info(p.logg.WithField(logCtx, "message_id", serverID), "listingevents.published")
	return nil
}
