package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is an append-only event record. The model exposes creation
// and queries only: no update or delete exists at this level, not just
// by convention.
type AuditLog struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// ActorUserID is null for anonymous or system actions.
	ActorUserID *uint `gorm:"index" json:"actorUserId,omitempty"`
	ActorUser   *User `gorm:"foreignKey:ActorUserID" json:"-"`

	Action Action `gorm:"type:varchar(16);not null" json:"action"`

	// DocumentID is null when the document has since been deleted or
	// the event was not document-scoped.
	DocumentID *uint `gorm:"index:idx_audit_logs_doc_ts,priority:1" json:"documentId,omitempty"`
	VersionNo  *int  `json:"versionNo,omitempty"`

	// TS is stamped server-side by the recorder; client-supplied
	// timestamps are never trusted.
	TS time.Time `gorm:"not null;index:idx_audit_logs_doc_ts,priority:2" json:"ts"`

	IP        string `gorm:"type:varchar(64)" json:"ip,omitempty"`
	UserAgent string `gorm:"type:text" json:"userAgent,omitempty"`

	Context JSON `gorm:"type:jsonb" json:"context,omitempty"`

	ShareLinkID *uuid.UUID `gorm:"type:uuid" json:"shareLinkId,omitempty"`
	QRLinkID    *uuid.UUID `gorm:"type:uuid" json:"qrLinkId,omitempty"`
}

// BeforeCreate hook to ensure the ID is set.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Create appends the record.
func (a *AuditLog) Create(db *gorm.DB) error {
	return db.Create(a).Error
}

// AuditLogs is a slice of audit records.
type AuditLogs []AuditLog

// FindByDocument retrieves a document's audit trail, newest first,
// capped at limit (0 means no cap).
func (as *AuditLogs) FindByDocument(db *gorm.DB, documentID uint, limit int) error {
	q := db.Where("document_id = ?", documentID).Order("ts DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q.Find(as).Error
}

// FindSince retrieves a document's audit records strictly after the
// given time, oldest first, excluding the given actor's own actions,
// capped at limit.
func (as *AuditLogs) FindSince(
	db *gorm.DB, documentID uint, since time.Time, excludeActorID *uint, limit int,
) error {
	q := db.Where("document_id = ? AND ts > ?", documentID, since)
	if excludeActorID != nil {
		q = q.Where("actor_user_id IS NULL OR actor_user_id != ?", *excludeActorID)
	}
	return q.Order("ts ASC").Limit(limit).Find(as).Error
}
