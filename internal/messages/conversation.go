package messages

import (
	"strings"

	"github.com/google/uuid"
)

// ConversationID derives the identifier shared by every message between a
// and b. The order of the arguments does not matter.
func ConversationID(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if x > y {
		x, y = y, x
	}
	return x + "_" + y
}

// Participants splits a conversation id back into its two user ids.
func Participants(conversationID string) (uuid.UUID, uuid.UUID, bool) {
	left, right, ok := strings.Cut(conversationID, "_")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	a, errA := uuid.Parse(left)
	b, errB := uuid.Parse(right)
	if errA != nil || errB != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return a, b, true
}
