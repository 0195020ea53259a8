package messages

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatehub-backend/internal/users"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
)

type SendMessageRequest struct {
	ReceiverID uuid.UUID  `json:"receiverId" validate:"required"`
	Content    string     `json:"content" validate:"required,max=2000"`
	PropertyID *uuid.UUID `json:"propertyRef,omitempty"`
}

type MessageDTO struct {
	ID             uuid.UUID      `json:"id"`
	ConversationID string         `json:"conversationId"`
	SenderID       uuid.UUID      `json:"senderId"`
	ReceiverID     uuid.UUID      `json:"receiverId"`
	Content        string         `json:"content"`
	PropertyID     *uuid.UUID     `json:"propertyRef,omitempty"`
	IsRead         bool           `json:"isRead"`
	Sender         *users.Summary `json:"sender,omitempty"`
	Receiver       *users.Summary `json:"receiver,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// ConversationDTO is one row of the inbox.
type ConversationDTO struct {
	ID          string     `json:"id"`
	LastMessage MessageDTO `json:"lastMessage"`
	UnreadCount int64      `json:"unreadCount"`
}

func FromModel(m *models.Message) MessageDTO {
	return MessageDTO{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		PropertyID:     m.PropertyID,
		IsRead:         m.IsRead,
		Sender:         users.SummaryFromModel(m.Sender),
		Receiver:       users.SummaryFromModel(m.Receiver),
		CreatedAt:      m.CreatedAt,
	}
}

func fromModels(rows []models.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
