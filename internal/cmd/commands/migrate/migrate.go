// Package migrate implements the database migration command.
package migrate

import (
	"fmt"

	"github.com/docuforge/docuvault/internal/cmd/base"
	"github.com/docuforge/docuvault/internal/config"
	"github.com/docuforge/docuvault/internal/db"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Migrate the database schema"
}

func (c *Command) Help() string {
	return `Usage: docuvault migrate -config=config.hcl

  Connect to the configured database and bring the schema up to date.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("migrate")
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

	if c.flagConfig == "" {
		c.UI.Error("-config flag is required")
		return 1
	}

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}

	if _, err := db.NewDB(cfg.DatabaseConnConfig(), c.Log); err != nil {
		c.UI.Error(fmt.Sprintf("error migrating database: %v", err))
		return 1
	}

	c.UI.Info("Database schema is up to date")
	return 0
}
