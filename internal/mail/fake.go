package mail

import (
	"context"
	"sync"
)

// Recorder is an in-memory Sender that keeps every message it is handed.
type Recorder struct {
	mu   sync.Mutex
	Sent []Message
	Err  error
}

func (r *Recorder) Send(ctx context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if err := msg.validate(); err != nil {
		return err
	}
	r.Sent = append(r.Sent, msg)
	return nil
}

// Last returns the most recent message or false when nothing was sent.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Sent) == 0 {
		return Message{}, false
	}
	return r.Sent[len(r.Sent)-1], true
}
