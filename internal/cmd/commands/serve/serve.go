// Package serve implements the server command.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	api "github.com/docuforge/docuvault/internal/api/v2"
	"github.com/docuforge/docuvault/internal/audit"
	"github.com/docuforge/docuvault/internal/auth"
	"github.com/docuforge/docuvault/internal/cmd/base"
	"github.com/docuforge/docuvault/internal/config"
	"github.com/docuforge/docuvault/internal/db"
	"github.com/docuforge/docuvault/internal/export"
	"github.com/docuforge/docuvault/internal/server"
	"github.com/docuforge/docuvault/internal/sharing"
	"github.com/docuforge/docuvault/internal/versions"
	"github.com/docuforge/docuvault/pkg/notifications"
	"github.com/docuforge/docuvault/pkg/notifications/backends"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Run the server"
}

func (c *Command) Help() string {
	return `Usage: docuvault serve [options]

  Run the API server.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("serve")
	f.StringVar(&c.flagConfig, "config", "",
		"Path to HCL configuration file")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	var (
		cfg *config.Config
		err error
	)
	if c.flagConfig != "" {
		cfg, err = config.NewConfig(c.flagConfig)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
			return 1
		}
	} else {
		c.UI.Info("No config file specified, using defaults with a local SQLite database")
		cfg = config.Default()
		if cfg.Database.SQLitePath == "" {
			cfg.Database.SQLitePath = "docuvault.db"
		}
	}

	database, err := db.NewDB(cfg.DatabaseConnConfig(), c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}

	sessionSecret := cfg.Auth.SessionSecret
	if sessionSecret == "" {
		sessionSecret = os.Getenv("DOCUVAULT_SESSION_SECRET")
	}
	if sessionSecret == "" {
		c.UI.Error("session secret is required (auth block or DOCUVAULT_SESSION_SECRET)")
		return 1
	}
	sessions, err := auth.NewSessions(
		sessionSecret, time.Duration(cfg.Auth.SessionTTLSeconds)*time.Second)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing sessions: %v", err))
		return 1
	}

	notifier, closeNotifier, err := c.buildNotifier(cfg)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing notifications: %v", err))
		return 1
	}
	defer closeNotifier()

	srv := server.Server{
		Config:   cfg,
		DB:       database,
		Logger:   c.Log,
		Sessions: sessions,
		Ledger:   versions.NewLedger(database, c.Log),
		Audit:    audit.NewRecorder(database, c.Log),
		Sharing:  sharing.NewService(database, c.Log),
		Exporter: export.NewExporter(afero.NewOsFs(), cfg.Export.Dir, database, c.Log),
		Notifier: notifier,
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, srv)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      auth.Middleware(sessions, database, c.Log, mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Log.Info("server listening", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			c.UI.Error(fmt.Sprintf("server error: %v", err))
			return 1
		}
	case sig := <-sigCh:
		c.Log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			c.UI.Error(fmt.Sprintf("error during shutdown: %v", err))
			return 1
		}
	}

	return 0
}

// buildNotifier constructs the configured Notifier: the broker
// publisher, the in-process dispatcher, or a no-op.
func (c *Command) buildNotifier(cfg *config.Config) (notifications.Notifier, func(), error) {
	nop := func() {}

	if cfg.Notifications == nil || !cfg.Notifications.Enabled {
		return notifications.NopNotifier{}, nop, nil
	}

	if cfg.Notifications.UseKafka {
		pub, err := notifications.NewPublisher(notifications.PublisherConfig{
			Brokers: cfg.Kafka.BrokerList(),
			Topic:   cfg.Kafka.Topic(),
		})
		if err != nil {
			return nil, nop, err
		}
		return pub, pub.Close, nil
	}

	registry := backends.NewRegistry()
	if cfg.Notifications.Log {
		if err := registry.Register(backends.NewLogBackend(c.Log)); err != nil {
			return nil, nop, err
		}
	}
	if cfg.Notifications.Mail != nil {
		mail, err := backends.NewMailBackend(backends.MailConfig{
			Host:     cfg.Notifications.Mail.Host,
			Port:     cfg.Notifications.Mail.Port,
			Username: cfg.Notifications.Mail.Username,
			Password: cfg.Notifications.Mail.Password,
			From:     cfg.Notifications.Mail.From,
		}, c.Log)
		if err != nil {
			return nil, nop, err
		}
		if err := registry.Register(mail); err != nil {
			return nil, nop, err
		}
	}
	return notifications.NewDispatcher(registry, c.Log), nop, nil
}
