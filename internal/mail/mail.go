// Package mail renders and delivers transactional email.
package mail

import (
	"context"
	"fmt"
	"strings"
)

// Kind selects the template of a message.
type Kind string

const (
	KindVerificationCode  Kind = "verification_code"
	KindResetCode         Kind = "reset_code"
	KindTemporaryPassword Kind = "temporary_password"
	KindWelcome           Kind = "welcome"
	KindPasswordChanged   Kind = "password_changed"
	KindSavedSearchMatch  Kind = "saved_search_match"
)

// Message is one outgoing email. Data feeds the template of Kind.
type Message struct {
	Kind Kind
	To   string
	Name string
	Data map[string]string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("mail recipient is required")
	}
	if _, ok := templates[m.Kind]; !ok {
		return fmt.Errorf("unknown mail kind %q", m.Kind)
	}
	return nil
}

// Sender delivers a message or returns why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
