package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// User is a subject known to the directory. IsAdmin grants the
// system-wide administrative override.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	EmailAddress string `gorm:"type:citext;default:null;uniqueIndex;not null" json:"email"`
	DisplayName  string `gorm:"type:varchar(255)" json:"displayName"`
	IsAdmin      bool   `gorm:"default:false" json:"isAdmin"`

	// Groups the user is a member of.
	Groups []*Group `gorm:"many2many:user_groups" json:"-"`
}

// Get retrieves a user by ID, preloading group memberships.
func (u *User) Get(db *gorm.DB) error {
	return db.Preload("Groups").First(u, u.ID).Error
}

// GetByEmail retrieves a user by email address.
func (u *User) GetByEmail(db *gorm.DB, email string) error {
	return db.Preload("Groups").First(u, "email_address = ?", email).Error
}

// FirstOrCreate finds the user by email address or creates it.
func (u *User) FirstOrCreate(db *gorm.DB) error {
	return db.
		Where(User{EmailAddress: u.EmailAddress}).
		Preload("Groups").
		FirstOrCreate(u).Error
}

// GroupIDs returns the user's group IDs as strings, the form grant
// subject IDs are stored in.
func (u *User) GroupIDs() []string {
	ids := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		ids = append(ids, strconv.FormatUint(uint64(g.ID), 10))
	}
	return ids
}

// SubjectID returns the user's ID in grant subject form.
func (u *User) SubjectID() string {
	return strconv.FormatUint(uint64(u.ID), 10)
}
