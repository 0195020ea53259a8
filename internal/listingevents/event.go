// Package listingevents carries property.created notifications over Pub/Sub
// so saved-search emails are sent outside the request path.
package listingevents

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventPropertyCreated = "property.created"

	attrEventType = "event_type"
	attrEventID   = "event_id"
	schemaVersion = 1
)

// Envelope is the JSON body of every listing event.
type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	Version    int             `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// PropertyCreated is the payload of EventPropertyCreated.
type PropertyCreated struct {
	PropertyID uuid.UUID `json:"property_id"`
}

func newEnvelope(eventType string, payload any, at time.Time) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:    uuid.New(),
		EventType:  eventType,
		Version:    schemaVersion,
		OccurredAt: at,
		Data:       data,
	}, nil
}

func decodePropertyCreated(env Envelope) (PropertyCreated, error) {
	var payload PropertyCreated
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return PropertyCreated{}, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	if payload.PropertyID == uuid.Nil {
		return PropertyCreated{}, fmt.Errorf("%s payload missing property_id", env.EventType)
	}
	return payload, nil
}
