package listingevents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

type stubResult struct {
	id  string
	err error
}

func (r stubResult) Get(context.Context) (string, error) { return r.id, r.err }

type recordingPublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	return stubResult{id: "srv-1", err: p.err}
}

type recordingHandler struct {
	calls []uuid.UUID
	err   error
}

func (h *recordingHandler) PropertyCreated(ctx context.Context, propertyID uuid.UUID) error {
	h.calls = append(h.calls, propertyID)
	return h.err
}

func testLogger() (*logger.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return logger.New(logger.Options{ServiceName: "test", Output: buf}), buf
}

func TestPublisherWrapsEnvelope(t *testing.T) {
	logg, buf := testLogger()
	pub := &recordingPublisher{}
	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	p, err := NewPublisher(PublisherParams{Publisher: pub, Logger: logg, Now: func() time.Time { return at }})
	require.NoError(t, err)

	propertyID := uuid.New()
	require.NoError(t, p.PropertyCreated(context.Background(), propertyID))
	require.Len(t, pub.messages, 1)

	msg := pub.messages[0]
	assert.Equal(t, EventPropertyCreated, msg.Attributes[attrEventType])

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, EventPropertyCreated, env.EventType)
	assert.Equal(t, env.EventID.String(), msg.Attributes[attrEventID])
	assert.Equal(t, 1, env.Version)
	assert.True(t, at.Equal(env.OccurredAt))

	payload, err := decodePropertyCreated(env)
	require.NoError(t, err)
	assert.Equal(t, propertyID, payload.PropertyID)
	assert.Contains(t, buf.String(), "listingevents.published")
}

func TestPublisherReturnsPublishError(t *testing.T) {
	logg, _ := testLogger()
	p, err := NewPublisher(PublisherParams{Publisher: &recordingPublisher{err: errors.New("unavailable")}, Logger: logg})
	require.NoError(t, err)

	err = p.PropertyCreated(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")

	_, err = NewPublisher(PublisherParams{Logger: logg})
	assert.Error(t, err)
}

func buildMessage(t *testing.T, eventType string, payload any) *gcppubsub.Message {
	t.Helper()
	env, err := newEnvelope(eventType, payload, time.Now().UTC())
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return &gcppubsub.Message{ID: "m-1", Data: data, Attributes: map[string]string{attrEventType: eventType}}
}

func newTestConsumer(t *testing.T, handler Handler) *Consumer {
	t.Helper()
	logg, _ := testLogger()
	c, err := NewConsumer(ConsumerParams{Subscription: &gcppubsub.Subscriber{}, Handler: handler, Logger: logg})
	require.NoError(t, err)
	return c
}

func TestConsumerDispatchesPropertyCreated(t *testing.T) {
	handler := &recordingHandler{}
	c := newTestConsumer(t, handler)
	propertyID := uuid.New()

	result := c.process(context.Background(), buildMessage(t, EventPropertyCreated, PropertyCreated{PropertyID: propertyID}))
	assert.True(t, result.ack)
	assert.False(t, result.nack)
	assert.Equal(t, []uuid.UUID{propertyID}, handler.calls)
}

func TestConsumerAcksUnprocessableMessages(t *testing.T) {
	handler := &recordingHandler{}
	c := newTestConsumer(t, handler)
	ctx := context.Background()

	cases := map[string]*gcppubsub.Message{
		"garbage":     {ID: "g", Data: []byte("not json")},
		"other event": buildMessage(t, "property.deleted", PropertyCreated{PropertyID: uuid.New()}),
		"missing id":  buildMessage(t, EventPropertyCreated, map[string]string{}),
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			result := c.process(ctx, msg)
			assert.True(t, result.ack)
		})
	}
	assert.Empty(t, handler.calls)
}

func TestConsumerRetriesHandlerFailures(t *testing.T) {
	ctx := context.Background()

	failing := newTestConsumer(t, &recordingHandler{err: errors.New("mail down")})
	result := failing.process(ctx, buildMessage(t, EventPropertyCreated, PropertyCreated{PropertyID: uuid.New()}))
	assert.True(t, result.nack)

	gone := newTestConsumer(t, &recordingHandler{err: pkgerrors.New(pkgerrors.CodeNotFound, "Property not found")})
	result = gone.process(ctx, buildMessage(t, EventPropertyCreated, PropertyCreated{PropertyID: uuid.New()}))
	assert.True(t, result.ack)
	assert.False(t, result.nack)
}
