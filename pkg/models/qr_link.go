package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QRLink maps a printed code to a document (optionally a specific
// version). It carries no role: whoever scans it still goes through
// normal access resolution. Deactivation uses an active flag rather
// than a revocation timestamp.
type QRLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	DocumentID uint      `gorm:"not null;index" json:"documentId"`
	Document   *Document `gorm:"foreignKey:DocumentID" json:"-"`

	// VersionNo optionally pins the code to one version.
	VersionNo *int `json:"versionNo,omitempty"`

	Code string `gorm:"type:varchar(255);not null;uniqueIndex" json:"code"`

	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Active    bool       `gorm:"default:true" json:"active"`

	CreatedByID *uint `json:"createdById,omitempty"`
	CreatedBy   *User `gorm:"foreignKey:CreatedByID" json:"-"`
}

// BeforeCreate hook to ensure the ID is set.
func (q *QRLink) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// GenerateQRCode creates a new opaque QR code value:
// dv-qr-<uuid>-<random-suffix>.
func GenerateQRCode() (string, error) {
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("error generating random bytes: %w", err)
	}
	return fmt.Sprintf("dv-qr-%s-%s",
		uuid.New().String(), hex.EncodeToString(randomBytes)), nil
}

// GetByCode retrieves a QR link by its code.
func (q *QRLink) GetByCode(db *gorm.DB, code string) error {
	return db.First(q, "code = ?", code).Error
}

// IsExpired reports whether the code's expiry is in the past.
func (q *QRLink) IsExpired() bool {
	return q.ExpiresAt != nil && time.Now().After(*q.ExpiresAt)
}

// Deactivate turns the code off.
func (q *QRLink) Deactivate(db *gorm.DB) error {
	q.Active = false
	return db.Model(q).Update("active", false).Error
}
