package main

import (
	"os"

	"github.com/docuforge/docuvault/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
