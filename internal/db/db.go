// Package db wires the shared database connection to this
// application's schema.
package db

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/docuforge/docuvault/pkg/database"
	"github.com/docuforge/docuvault/pkg/models"
)

// NewDB connects to the configured database and migrates the schema.
func NewDB(cfg database.Config, log hclog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := db.AutoMigrate(models.ModelsToAutoMigrate()...); err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return db, nil
}
