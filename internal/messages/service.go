package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

// Service manages direct messages between users.
type Service interface {
	ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationDTO, error)
	ListMessages(ctx context.Context, userID, otherUserID uuid.UUID) ([]MessageDTO, error)
	Send(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*MessageDTO, error)
	MarkRead(ctx context.Context, userID, messageID uuid.UUID) (*MessageDTO, error)
	DeleteMessage(ctx context.Context, userID, messageID uuid.UUID) error
	DeleteConversation(ctx context.Context, userID, otherUserID uuid.UUID) (int64, error)
}

// Notifier pushes a persisted message to a connected receiver. Delivery is
// best effort; false means the receiver was not reachable.
type Notifier interface {
	Notify(receiverID uuid.UUID, message any) bool
}

type messageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListConversation(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID string, receiverID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteConversation(ctx context.Context, conversationID string) (int64, error)
	LastMessages(ctx context.Context, userID uuid.UUID) ([]models.Message, error)
	UnreadCounts(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type ServiceParams struct {
	Repo     messageRepository
	Notifier Notifier
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     messageRepository
	notifier Notifier
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("message repository is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: params.Repo, notifier: params.Notifier, logg: params.Logger, now: now}, nil
}

func (s *service) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationDTO, error) {
	last, err := s.repo.LastMessages(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list conversations")
	}
	unread, err := s.repo.UnreadCounts(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count unread messages")
	}

	out := make([]ConversationDTO, 0, len(last))
	for i := range last {
		out = append(out, ConversationDTO{
			ID:          last[i].ConversationID,
			LastMessage: FromModel(&last[i]),
			UnreadCount: unread[last[i].ConversationID],
		})
	}
	return out, nil
}

// ListMessages returns the conversation with otherUserID and marks what the
// caller received as read.
func (s *service) ListMessages(ctx context.Context, userID, otherUserID uuid.UUID) ([]MessageDTO, error) {
	conversationID := ConversationID(userID, otherUserID)
	rows, err := s.repo.ListConversation(ctx, conversationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}
	if _, err := s.repo.MarkConversationRead(ctx, conversationID, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark conversation read")
	}
	return fromModels(rows), nil
}

func (s *service) Send(ctx context.Context, senderID uuid.UUID, req SendMessageRequest) (*MessageDTO, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message content is required")
	}
	if req.ReceiverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiverId is required")
	}
	if req.ReceiverID == senderID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "You cannot message yourself")
	}
	exists, err := s.repo.UserExists(ctx, req.ReceiverID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load receiver")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Receiver not found")
	}

	msg := &models.Message{
		ID:             uuid.New(),
		ConversationID: ConversationID(senderID, req.ReceiverID),
		SenderID:       senderID,
		ReceiverID:     req.ReceiverID,
		Content:        content,
		PropertyID:     req.PropertyID,
		CreatedAt:      s.now(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create message")
	}

	stored, err := s.repo.FindByID(ctx, msg.ID)
	if err != nil {
		return nil, notFoundOr(err, "load message")
	}
	dto := FromModel(stored)

	if s.notifier != nil && !s.notifier.Notify(dto.ReceiverID, dto) && s.logg != nil {
		s.logg.Debug(s.logg.WithField(ctx, "receiver_id", dto.ReceiverID.String()), "messages.receiver_offline")
	}
	return &dto, nil
}

func (s *service) MarkRead(ctx context.Context, userID, messageID uuid.UUID) (*MessageDTO, error) {
	msg, err := s.loadInvolved(ctx, userID, messageID, "update")
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkRead(ctx, messageID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark message read")
	}
	msg.IsRead = true
	dto := FromModel(msg)
	return &dto, nil
}

func (s *service) DeleteMessage(ctx context.Context, userID, messageID uuid.UUID) error {
	if _, err := s.loadInvolved(ctx, userID, messageID, "delete"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, messageID); err != nil {
		return notFoundOr(err, "delete message")
	}
	return nil
}

func (s *service) DeleteConversation(ctx context.Context, userID, otherUserID uuid.UUID) (int64, error) {
	n, err := s.repo.DeleteConversation(ctx, ConversationID(userID, otherUserID))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete conversation")
	}
	return n, nil
}

func (s *service) loadInvolved(ctx context.Context, userID, messageID uuid.UUID, action string) (*models.Message, error) {
	msg, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return nil, notFoundOr(err, "load message")
	}
	if !msg.Involves(userID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to "+action+" this message")
	}
	return msg, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Message not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
