package models

import (
	"time"

	"gorm.io/gorm"
)

// Document is the core record. Content lives in the HTML/Text pair,
// which the version ledger treats as an opaque payload; the columns
// here mirror the newest ledger entry.
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title string `gorm:"type:varchar(500);not null" json:"title"`

	// HTML is the source of truth for document content; Text is the
	// plain-text rendering supplied by the caller alongside it.
	HTML string `gorm:"type:text" json:"html"`
	Text string `gorm:"type:text" json:"text"`

	// OwnerID is set at creation and never null afterwards; ownership
	// transfer is not supported.
	OwnerID uint  `gorm:"index;not null" json:"ownerId"`
	Owner   *User `gorm:"foreignKey:OwnerID" json:"-"`

	// CurrentVersionNo always equals the version number of the newest
	// entry in this document's version ledger. Advanced only by the
	// ledger, inside the same transaction that writes the version row.
	CurrentVersionNo int `gorm:"not null;default:1" json:"currentVersionNo"`
}

// Get retrieves a document by ID.
func (d *Document) Get(db *gorm.DB) error {
	return db.Preload("Owner").First(d, d.ID).Error
}

// Create inserts the document row. Callers should go through the
// version ledger's CreateDocument so the initial version row is
// written in the same transaction.
func (d *Document) Create(db *gorm.DB) error {
	return db.Create(d).Error
}

// Delete removes the document and cascades to its grants, share
// links, QR links, and version ledger in one transaction. Audit
// records survive with a null document reference.
func (d *Document) Delete(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&DocumentVersion{}, &Grant{}, &ShareLink{}, &QRLink{},
		} {
			if err := tx.Where("document_id = ?", d.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(d).Error
	})
}

// Documents is a slice of documents.
type Documents []Document

// FindByOwner retrieves all documents owned by a user, newest first.
func (ds *Documents) FindByOwner(db *gorm.DB, ownerID uint) error {
	return db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(ds).Error
}
