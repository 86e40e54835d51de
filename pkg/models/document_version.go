package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentVersion is an immutable content snapshot. Rows are only ever
// inserted: a restore reads an old snapshot and appends a new one, and
// nothing in this model exposes an update or single-row delete.
type DocumentVersion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	DocumentID uint      `gorm:"not null;uniqueIndex:idx_document_versions_doc_no,priority:1" json:"documentId"`
	Document   *Document `gorm:"foreignKey:DocumentID" json:"-"`

	// VersionNo is unique per document and strictly increasing; numbers
	// are never reused.
	VersionNo int `gorm:"not null;uniqueIndex:idx_document_versions_doc_no,priority:2" json:"versionNo"`

	HTML string `gorm:"type:text" json:"html"`
	Text string `gorm:"type:text" json:"text"`

	AuthorID   *uint   `json:"authorId,omitempty"`
	Author     *User   `gorm:"foreignKey:AuthorID" json:"-"`
	ChangeNote string  `gorm:"type:text" json:"changeNote,omitempty"`
	Hash       *string `gorm:"type:text" json:"hash,omitempty"`
}

// BeforeCreate hook to ensure the ID is set.
func (v *DocumentVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// GetByVersionNo retrieves one version of a document.
func (v *DocumentVersion) GetByVersionNo(db *gorm.DB, documentID uint, versionNo int) error {
	return db.
		Where("document_id = ? AND version_no = ?", documentID, versionNo).
		First(v).Error
}

// DocumentVersions is a slice of document versions.
type DocumentVersions []DocumentVersion

// FindByDocument retrieves all versions of a document, newest first.
func (vs *DocumentVersions) FindByDocument(db *gorm.DB, documentID uint) error {
	return db.Where("document_id = ?", documentID).
		Order("version_no DESC").
		Find(vs).Error
}
