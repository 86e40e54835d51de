package server

import (
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/docuforge/docuvault/internal/audit"
	"github.com/docuforge/docuvault/internal/auth"
	"github.com/docuforge/docuvault/internal/config"
	"github.com/docuforge/docuvault/internal/export"
	"github.com/docuforge/docuvault/internal/sharing"
	"github.com/docuforge/docuvault/internal/versions"
	"github.com/docuforge/docuvault/pkg/notifications"
)

// Server bundles the dependencies every API handler closes over.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// DB is the database for the server.
	DB *gorm.DB

	// Logger is the logger for the server.
	Logger hclog.Logger

	// Sessions issues and validates session tokens.
	Sessions *auth.Sessions

	// Ledger is the append-only version ledger.
	Ledger *versions.Ledger

	// Audit records and serves the audit trail.
	Audit *audit.Recorder

	// Sharing manages grants, share links, and QR links.
	Sharing *sharing.Service

	// Exporter writes document exports.
	Exporter *export.Exporter

	// Notifier delivers notifications. Never nil; configured off it is
	// a NopNotifier.
	Notifier notifications.Notifier
}
