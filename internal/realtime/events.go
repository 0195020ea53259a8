package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Client to server events.
const (
	EventUserConnected = "user_connected"
	EventSendMessage   = "send_message"
	EventTyping        = "typing"
)

// Server to client events.
const (
	EventReceiveMessage = "receive_message"
	EventUserTyping     = "user_typing"
)

// Frame is the wire envelope in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type sendMessagePayload struct {
	ReceiverID uuid.UUID       `json:"receiverId"`
	Message    json.RawMessage `json:"message"`
}

type typingPayload struct {
	ReceiverID uuid.UUID `json:"receiverId"`
	IsTyping   bool      `json:"isTyping"`
}

// TypingNotice is what the receiver of a typing event sees.
type TypingNotice struct {
	SenderID uuid.UUID `json:"senderId"`
	IsTyping bool      `json:"isTyping"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}
