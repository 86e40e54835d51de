package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShareLink grants anonymous, token-keyed access to one document. The
// role is pinned to VIEWER: creation forces it and resolution clamps
// it again, so neither a tampered row nor a tampered materialized
// grant can escalate past read access.
type ShareLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	DocumentID uint      `gorm:"not null;index" json:"documentId"`
	Document   *Document `gorm:"foreignKey:DocumentID" json:"-"`

	Role Role `gorm:"type:varchar(16);not null;default:'VIEWER'" json:"role"`

	Token string `gorm:"type:varchar(255);not null;uniqueIndex" json:"token"`

	ExpiresAt *time.Time `json:"expiresAt,omitempty"`

	// RevokedAt set is a terminal state; a revoked link never resolves
	// again regardless of expiry.
	RevokedAt *time.Time `json:"revokedAt,omitempty"`

	CreatedByID *uint `json:"createdById,omitempty"`
	CreatedBy   *User `gorm:"foreignKey:CreatedByID" json:"-"`
}

// BeforeCreate hook to ensure the ID is set.
func (s *ShareLink) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// GenerateShareToken creates a new opaque share token:
// dv-share-<uuid>-<random-suffix>. The only properties callers may
// rely on are uniqueness and unguessability.
func GenerateShareToken() (string, error) {
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("error generating random bytes: %w", err)
	}
	return fmt.Sprintf("dv-share-%s-%s",
		uuid.New().String(), hex.EncodeToString(randomBytes)), nil
}

// Get retrieves a share link by ID.
func (s *ShareLink) Get(db *gorm.DB) error {
	return db.First(s, "id = ?", s.ID).Error
}

// GetByToken retrieves a share link by its opaque token.
func (s *ShareLink) GetByToken(db *gorm.DB, token string) error {
	return db.Preload("Document").First(s, "token = ?", token).Error
}

// IsRevoked reports whether the link has been explicitly revoked.
func (s *ShareLink) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsExpired reports whether the link's expiry is in the past.
func (s *ShareLink) IsExpired() bool {
	return s.ExpiresAt != nil && time.Now().After(*s.ExpiresAt)
}

// ShareLinks is a slice of share links.
type ShareLinks []ShareLink

// FindByDocument retrieves all share links for a document, newest
// first.
func (ss *ShareLinks) FindByDocument(db *gorm.DB, documentID uint) error {
	return db.Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(ss).Error
}
