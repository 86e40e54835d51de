package notifications

import (
	"time"
)

// NotificationType defines the type of notification
type NotificationType string

const (
	NotificationTypeDocumentShared  NotificationType = "document_shared"
	NotificationTypeAccessRevoked   NotificationType = "access_revoked"
	NotificationTypeAccessChanged   NotificationType = "access_changed"
	NotificationTypeDocumentEdited  NotificationType = "document_edited"
	NotificationTypeDocumentDeleted NotificationType = "document_deleted"
)

// NotificationMessage is the envelope for all notifications
type NotificationMessage struct {
	// Message metadata
	ID        string           `json:"id"`        // Unique message ID (UUID)
	Type      NotificationType `json:"type"`      // Notification type
	Timestamp time.Time        `json:"timestamp"` // When published
	Priority  int              `json:"priority"`  // 0=normal, 1=high, 2=urgent

	// Context
	ActorUserID string `json:"actor_user_id,omitempty"` // Triggering user
	DocumentID  string `json:"document_id,omitempty"`   // Related document
	VersionNo   int    `json:"version_no,omitempty"`    // Related version, if any

	// Notification targets
	Recipients []Recipient `json:"recipients"` // Who receives this

	// Resolved content
	Subject string `json:"subject"` // Fully resolved subject line
	Body    string `json:"body"`    // Fully resolved body

	// Backend routing (which backends should process this)
	Backends []string `json:"backends"` // ["mail", "log", "test"]
}

// Recipient defines a notification recipient
type Recipient struct {
	UserID string `json:"user_id,omitempty"` // Directory user ID
	Email  string `json:"email,omitempty"`   // Email address
	Name   string `json:"name,omitempty"`    // Display name
}
