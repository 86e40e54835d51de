// Package backends defines the notification delivery backends and the
// registry that routes messages to them.
package backends

import (
	"context"
	"fmt"
	"time"
)

// Backend is a notification delivery channel.
type Backend interface {
	// Name returns the backend's registry name ("mail", "log", "test").
	Name() string

	// Handle delivers one message. Implementations must be safe for
	// concurrent use.
	Handle(ctx context.Context, msg *Message) error
}

// Message is the backend-facing form of a notification.
type Message struct {
	ID         string
	Type       string
	Timestamp  time.Time
	Subject    string
	Body       string
	DocumentID string
	Recipients []Recipient
}

// Recipient is one delivery target.
type Recipient struct {
	UserID string
	Email  string
	Name   string
}

// BackendError wraps a delivery failure with the backend that produced
// it.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
