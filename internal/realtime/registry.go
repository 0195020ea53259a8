// Package realtime relays chat and typing events between connected users
// over websockets. Delivery is best effort: events for users who are not
// connected, or whose outbound buffer is full, are dropped.
package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Conn is one live connection able to take an encoded frame.
type Conn interface {
	// Send queues the frame and reports false when it was dropped.
	Send(frame []byte) bool
}

// Registry maps each user to their most recent connection. Every socket is
// served on its own goroutine, so access is guarded.
type Registry struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]Conn
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[uuid.UUID]Conn)}
}

// Register points userID at conn, replacing any earlier connection.
func (r *Registry) Register(userID uuid.UUID, conn Conn) {
	r.mu.Lock()
	r.byUser[userID] = conn
	r.mu.Unlock()
}

// Unregister drops every user still mapped to conn and returns them.
func (r *Registry) Unregister(conn Conn) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []uuid.UUID
	for userID, registered := range r.byUser {
		if registered == conn {
			delete(r.byUser, userID)
			removed = append(removed, userID)
		}
	}
	return removed
}

func (r *Registry) Lookup(userID uuid.UUID) (Conn, bool) {
	r.mu.RLock()
	conn, ok := r.byUser[userID]
	r.mu.RUnlock()
	return conn, ok
}

// Len is the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
