package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is a named set of users that grants can target collectively.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`

	Users []*User `gorm:"many2many:user_groups" json:"-"`
}

// Get retrieves a group by ID.
func (g *Group) Get(db *gorm.DB) error {
	return db.First(g, g.ID).Error
}

// GetByName retrieves a group by name.
func (g *Group) GetByName(db *gorm.DB, name string) error {
	return db.First(g, "name = ?", name).Error
}

// Members returns the group's users.
func (g *Group) Members(db *gorm.DB) ([]*User, error) {
	var users []*User
	err := db.Model(g).Association("Users").Find(&users)
	return users, err
}

// AddMember adds a user to the group.
func (g *Group) AddMember(db *gorm.DB, u *User) error {
	return db.Model(g).Association("Users").Append(u)
}
