package messages

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

type recordingNotifier struct {
	mu        sync.Mutex
	delivered map[uuid.UUID][]any
	online    map[uuid.UUID]bool
}

func (n *recordingNotifier) Notify(receiverID uuid.UUID, message any) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.online[receiverID] {
		return false
	}
	n.delivered[receiverID] = append(n.delivered[receiverID], message)
	return true
}

func tickingClock() func() time.Time {
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newTestService(t *testing.T, notifier Notifier) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), Notifier: notifier, Now: tickingClock()})
	require.NoError(t, err)
	return svc, conn
}

func TestConversationIDIsSymmetric(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	assert.Equal(t, ConversationID(a, b), ConversationID(b, a))
	assert.NotEqual(t, ConversationID(a, b), ConversationID(a, c))

	x, y, ok := Participants(ConversationID(a, b))
	require.True(t, ok)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, []uuid.UUID{x, y})

	_, _, ok = Participants("not-a-conversation")
	assert.False(t, ok)
}

func TestScenarioHiConversation(t *testing.T) {
	notifier := &recordingNotifier{delivered: map[uuid.UUID][]any{}, online: map[uuid.UUID]bool{}}
	svc, conn := newTestService(t, notifier)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, conn, "Alice", "alice@example.com")
	bob := dbtest.SeedUser(t, conn, "Bob", "bob@example.com")
	notifier.online[bob.ID] = true

	sent, err := svc.Send(ctx, alice.ID, SendMessageRequest{ReceiverID: bob.ID, Content: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, ConversationID(alice.ID, bob.ID), sent.ConversationID)
	require.NotNil(t, sent.Sender)
	assert.Equal(t, "Alice", sent.Sender.Name)
	assert.Len(t, notifier.delivered[bob.ID], 1)

	inbox, err := svc.ListConversations(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Hi", inbox[0].LastMessage.Content)
	assert.EqualValues(t, 1, inbox[0].UnreadCount)

	senderInbox, err := svc.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, senderInbox, 1)
	assert.Zero(t, senderInbox[0].UnreadCount)

	thread, err := svc.ListMessages(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)

	inbox, err = svc.ListConversations(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, inbox[0].UnreadCount, "reading the thread zeroes the unread count")
}

func TestConversationsOrderedByLatestMessage(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, conn, "Alice", "alice@example.com")
	bob := dbtest.SeedUser(t, conn, "Bob", "bob@example.com")
	carol := dbtest.SeedUser(t, conn, "Carol", "carol@example.com")

	_, err := svc.Send(ctx, bob.ID, SendMessageRequest{ReceiverID: alice.ID, Content: "first"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, carol.ID, SendMessageRequest{ReceiverID: alice.ID, Content: "hello"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice.ID, SendMessageRequest{ReceiverID: bob.ID, Content: "reply"})
	require.NoError(t, err)

	inbox, err := svc.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "reply", inbox[0].LastMessage.Content)
	assert.Zero(t, inbox[0].UnreadCount)
	assert.Equal(t, "hello", inbox[1].LastMessage.Content)
	assert.EqualValues(t, 1, inbox[1].UnreadCount)
}

func TestSendRules(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, conn, "Alice", "alice@example.com")

	_, err := svc.Send(ctx, alice.ID, SendMessageRequest{ReceiverID: alice.ID, Content: "me"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Send(ctx, alice.ID, SendMessageRequest{ReceiverID: uuid.New(), Content: "ghost"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.Send(ctx, alice.ID, SendMessageRequest{ReceiverID: uuid.New(), Content: "   "})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestParticipantOnlyWrites(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, conn, "Alice", "alice@example.com")
	bob := dbtest.SeedUser(t, conn, "Bob", "bob@example.com")
	mallory := dbtest.SeedUser(t, conn, "Mallory", "mallory@example.com")

	msg, err := svc.Send(ctx, alice.ID, SendMessageRequest{ReceiverID: bob.ID, Content: "secret"})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, mallory.ID, msg.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	err = svc.DeleteMessage(ctx, mallory.ID, msg.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	_, err = svc.MarkRead(ctx, bob.ID, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	read, err := svc.MarkRead(ctx, bob.ID, msg.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	require.NoError(t, svc.DeleteMessage(ctx, bob.ID, msg.ID))
	err = svc.DeleteMessage(ctx, bob.ID, msg.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDeleteConversationCountsRows(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, conn, "Alice", "alice@example.com")
	bob := dbtest.SeedUser(t, conn, "Bob", "bob@example.com")

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.Send(ctx, alice.ID, SendMessageRequest{ReceiverID: bob.ID, Content: text})
		require.NoError(t, err)
	}

	n, err := svc.DeleteConversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	thread, err := svc.ListMessages(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, thread)
}
