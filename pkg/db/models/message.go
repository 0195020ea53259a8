package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a persisted direct message between two users.
type Message struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ConversationID string     `gorm:"column:conversation_id;not null;index:messages_conversation_id_idx"`
	SenderID       uuid.UUID  `gorm:"column:sender_id;type:uuid;not null"`
	ReceiverID     uuid.UUID  `gorm:"column:receiver_id;type:uuid;not null;index:messages_receiver_unread_idx"`
	Content        string     `gorm:"column:content;not null"`
	PropertyID     *uuid.UUID `gorm:"column:property_id;type:uuid"`
	IsRead         bool       `gorm:"column:is_read;not null;index:messages_receiver_unread_idx"`
	Sender         *User      `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	Receiver       *User      `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"`
}

// Involves reports whether userID is the sender or the receiver.
func (m *Message) Involves(userID uuid.UUID) bool {
	return m != nil && (m.SenderID == userID || m.ReceiverID == userID)
}
