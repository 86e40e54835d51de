// Package config loads the application's HCL configuration file.
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/docuforge/docuvault/pkg/database"
	"github.com/docuforge/docuvault/pkg/kafka"
)

// Config is the top-level configuration for the server.
type Config struct {
	// BaseURL is the public base URL, used when rendering share and QR
	// links.
	BaseURL string `hcl:"base_url,optional"`

	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `hcl:"listen_addr,optional"`

	// LogLevel sets the hclog level (trace, debug, info, warn, error).
	LogLevel string `hcl:"log_level,optional"`

	// Auth configures session tokens.
	Auth *AuthConfig `hcl:"auth,block"`

	// Database configures the backing store.
	Database *DatabaseConfig `hcl:"database,block"`

	// Kafka configures the optional notification broker.
	Kafka *kafka.Config `hcl:"kafka,block"`

	// Notifications configures delivery backends.
	Notifications *NotificationsConfig `hcl:"notifications,block"`

	// Export configures document export output.
	Export *ExportConfig `hcl:"export,block"`
}

// AuthConfig configures session token issuance and validation.
type AuthConfig struct {
	// SessionSecret signs session JWTs. Required in production.
	SessionSecret string `hcl:"session_secret,optional"`

	// SessionTTLSeconds is how long an issued session token is valid.
	SessionTTLSeconds int `hcl:"session_ttl_seconds,optional"`
}

// DatabaseConfig configures the backing store. When SQLitePath is set
// it takes precedence over the PostgreSQL settings.
type DatabaseConfig struct {
	Host       string `hcl:"host,optional"`
	Port       int    `hcl:"port,optional"`
	User       string `hcl:"user,optional"`
	Password   string `hcl:"password,optional"`
	DBName     string `hcl:"dbname,optional"`
	SSLMode    string `hcl:"sslmode,optional"`
	SQLitePath string `hcl:"sqlite_path,optional"`
}

// NotificationsConfig selects and configures delivery backends.
type NotificationsConfig struct {
	// Enabled toggles notification dispatch entirely.
	Enabled bool `hcl:"enabled,optional"`

	// UseKafka routes notifications through the broker instead of the
	// in-process dispatcher.
	UseKafka bool `hcl:"use_kafka,optional"`

	Mail *MailBackendConfig `hcl:"mail,block"`

	// Log enables the log backend.
	Log bool `hcl:"log,optional"`
}

// MailBackendConfig configures the SMTP backend.
type MailBackendConfig struct {
	Host     string `hcl:"host"`
	Port     int    `hcl:"port,optional"`
	Username string `hcl:"username,optional"`
	Password string `hcl:"password,optional"`
	From     string `hcl:"from"`
}

// ExportConfig configures document export output.
type ExportConfig struct {
	// Dir is the directory exported files are written to.
	Dir string `hcl:"dir,optional"`
}

// NewConfig parses an HCL configuration file and applies defaults.
func NewConfig(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("error decoding configuration file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, suitable
// for development without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:8000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Auth == nil {
		c.Auth = &AuthConfig{}
	}
	if c.Auth.SessionTTLSeconds == 0 {
		c.Auth.SessionTTLSeconds = 8 * 60 * 60
	}
	if c.Database == nil {
		c.Database = &DatabaseConfig{}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka == nil {
		c.Kafka = &kafka.Config{}
	}
	if c.Notifications == nil {
		c.Notifications = &NotificationsConfig{Log: true}
	}
	if c.Export == nil {
		c.Export = &ExportConfig{}
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "exports"
	}
}

// NotificationBackends returns the backend names notifications should
// route to, per the configuration.
func (c *Config) NotificationBackends() []string {
	if c.Notifications == nil {
		return nil
	}
	var names []string
	if c.Notifications.Log {
		names = append(names, "log")
	}
	if c.Notifications.Mail != nil {
		names = append(names, "mail")
	}
	return names
}

// DatabaseConnConfig converts the HCL database block to the connection
// settings the database package expects.
func (c *Config) DatabaseConnConfig() database.Config {
	return database.Config{
		Host:       c.Database.Host,
		Port:       c.Database.Port,
		User:       c.Database.User,
		Password:   c.Database.Password,
		DBName:     c.Database.DBName,
		SSLMode:    c.Database.SSLMode,
		SQLitePath: c.Database.SQLitePath,
	}
}
