package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/docuforge/docuvault/internal/cmd/base"
	"github.com/docuforge/docuvault/internal/cmd/commands/migrate"
	"github.com/docuforge/docuvault/internal/cmd/commands/serve"
	"github.com/docuforge/docuvault/internal/version"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCommand := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"serve": func() (cli.Command, error) {
			return &serve.Command{Command: baseCommand}, nil
		},
		"migrate": func() (cli.Command, error) {
			return &migrate.Command{Command: baseCommand}, nil
		},
		"version": func() (cli.Command, error) {
			return &versionCommand{ui: ui}, nil
		},
	}
}

type versionCommand struct {
	ui cli.Ui
}

func (c *versionCommand) Synopsis() string { return "Print the version" }

func (c *versionCommand) Help() string { return "Usage: docuvault version" }

func (c *versionCommand) Run([]string) int {
	c.ui.Output(version.Version)
	return 0
}
