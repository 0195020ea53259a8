package messages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var m models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListConversation returns every message of the conversation, oldest first.
func (r *Repository) ListConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// MarkConversationRead flags every unread message addressed to receiverID.
func (r *Repository) MarkConversationRead(ctx context.Context, conversationID string, receiverID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND is_read = ?", conversationID, receiverID, false).
		UpdateColumn("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", id).
		UpdateColumn("is_read", true).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteConversation(ctx context.Context, conversationID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Delete(&models.Message{})
	return res.RowsAffected, res.Error
}

// LastMessages returns the newest message of every conversation userID takes
// part in, newest conversation first.
func (r *Repository) LastMessages(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	latest := r.db.
		Model(&models.Message{}).
		Select("conversation_id, MAX(created_at) AS last_at").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Group("conversation_id")

	var rows []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Joins("JOIN (?) AS latest ON latest.conversation_id = messages.conversation_id AND latest.last_at = messages.created_at", latest).
		Order("messages.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// Two messages sharing the newest timestamp keep only the first.
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	for _, row := range rows {
		if _, dup := seen[row.ConversationID]; dup {
			continue
		}
		seen[row.ConversationID] = struct{}{}
		out = append(out, row)
	}
	return out, nil
}

type unreadRow struct {
	ConversationID string
	Unread         int64
}

// UnreadCounts maps conversation id to the number of unread messages
// addressed to userID.
func (r *Repository) UnreadCounts(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	var rows []unreadRow
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS unread").
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ConversationID] = row.Unread
	}
	return counts, nil
}

func (r *Repository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
