// Package main implements the code-navigator CLI (codenav).
// It resolves imports, builds the file dependency graph and ranks files by
// architectural importance.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/efrenbl/code-navigator/cmd/codenav/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	// A .env file is optional; CODENAV_* variables may come from the shell.
	_ = godotenv.Load()

	commands.RootCmd.SetVersionTemplate(`codenav version {{.Version}}
`)
	commands.RootCmd.Version = version
	if buildTime != "" {
		commands.RootCmd.Version = version + " (built " + buildTime + ")"
	}

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
