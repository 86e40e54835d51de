// Package base carries the state shared by all CLI commands.
package base

import (
	"flag"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every subcommand.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// NewCommand creates the shared command state.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{Log: log, UI: ui}
}

// FlagSet wraps flag.FlagSet with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a flag set for a subcommand.
func NewFlagSet(name string) *FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	return &FlagSet{FlagSet: f}
}

// Help returns the rendered flag usage.
func (f *FlagSet) Help() string {
	var out string
	f.VisitAll(func(fl *flag.Flag) {
		out += fmt.Sprintf("  -%s\n      %s", fl.Name, fl.Usage)
		if fl.DefValue != "" {
			out += fmt.Sprintf(" (default: %s)", fl.DefValue)
		}
		out += "\n"
	})
	if out == "" {
		return ""
	}
	return "Flags:\n\n" + out
}
