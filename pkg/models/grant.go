package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Grant is an ACL entry: (document, subject) -> role. At most one
// grant exists per (document, subject_type, subject_id) tuple; writing
// the same tuple again replaces the prior row instead of stacking.
type Grant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	DocumentID uint      `gorm:"not null;uniqueIndex:idx_grants_subject,priority:1" json:"documentId"`
	Document   *Document `gorm:"foreignKey:DocumentID" json:"-"`

	SubjectType SubjectType `gorm:"type:varchar(16);not null;uniqueIndex:idx_grants_subject,priority:2" json:"subjectType"`
	SubjectID   string      `gorm:"type:varchar(255);not null;uniqueIndex:idx_grants_subject,priority:3" json:"subjectId"`

	Role Role `gorm:"type:varchar(16);not null" json:"role"`

	// ExpiresAt null means the grant never expires. Expiry is evaluated
	// against the clock at resolution time; expired rows are simply
	// ignored, never swept.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`

	CreatedByID *uint `json:"createdById,omitempty"`
	CreatedBy   *User `gorm:"foreignKey:CreatedByID" json:"-"`
}

// BeforeCreate hook to ensure the ID is set.
func (g *Grant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// activeClause filters to grants whose expiry is unset or in the
// future relative to now.
const activeClause = "(expires_at IS NULL OR expires_at > ?)"

// Upsert writes the grant, replacing any existing grant for the same
// (document, subject_type, subject_id) tuple. The composite unique
// index serializes concurrent upserts on the same key. On the replace
// path the stored row keeps its original ID, so the tuple is re-read
// afterwards and g ends up holding the row that actually exists.
func (g *Grant) Upsert(db *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "document_id"},
			{Name: "subject_type"},
			{Name: "subject_id"},
		},
		DoUpdates: clause.AssignmentColumns(
			[]string{"role", "expires_at", "created_by_id", "created_at"}),
	}).Create(g).Error
	if err != nil {
		return err
	}

	var stored Grant
	err = db.
		Where("document_id = ? AND subject_type = ? AND subject_id = ?",
			g.DocumentID, g.SubjectType, g.SubjectID).
		First(&stored).Error
	if err != nil {
		return err
	}
	*g = stored
	return nil
}

// Get retrieves a grant by ID.
func (g *Grant) Get(db *gorm.DB) error {
	return db.First(g, "id = ?", g.ID).Error
}

// Delete removes the grant row.
func (g *Grant) Delete(db *gorm.DB) error {
	return db.Delete(g).Error
}

// ActiveUserGrant retrieves the active direct grant for a user on a
// document, if any. Returns (nil, nil) when absent.
func ActiveUserGrant(db *gorm.DB, documentID uint, subjectID string) (*Grant, error) {
	var g Grant
	err := db.
		Where("document_id = ? AND subject_type = ? AND subject_id = ?",
			documentID, SubjectUser, subjectID).
		Where(activeClause, time.Now()).
		First(&g).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// ActiveGroupGrants retrieves the active group grants on a document
// for any of the given group IDs.
func ActiveGroupGrants(db *gorm.DB, documentID uint, groupIDs []string) ([]Grant, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var gs []Grant
	err := db.
		Where("document_id = ? AND subject_type = ? AND subject_id IN ?",
			documentID, SubjectGroup, groupIDs).
		Where(activeClause, time.Now()).
		Find(&gs).Error
	return gs, err
}

// Grants is a slice of grants.
type Grants []Grant

// FindByDocument retrieves all grants on a document, including expired
// ones, for listing surfaces.
func (gs *Grants) FindByDocument(db *gorm.DB, documentID uint) error {
	return db.Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(gs).Error
}

// DeleteShareLinkGrant removes the materialized grant for a share
// link. Called inside the revocation transaction so resolution and
// role listing can never disagree about a revoked link.
func DeleteShareLinkGrant(db *gorm.DB, documentID uint, linkID uuid.UUID) error {
	return db.
		Where("document_id = ? AND subject_type = ? AND subject_id = ?",
			documentID, SubjectShareLink, linkID.String()).
		Delete(&Grant{}).Error
}
