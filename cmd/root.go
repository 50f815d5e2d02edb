// Package cmd wires the dragonify command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	_ "github.com/joho/godotenv/autoload"
)

// Build information, set from main.
var (
	BuildVersion string
	BuildCommit  string
	BuildDate    string
)

var rootCmd = &cobra.Command{
	Use:   "dragonify",
	Short: "Dragonify - managed bridge network for application containers",
	Long: `Dragonify keeps application containers attached to a dedicated internal
bridge network under predictable DNS names and injects host gateway
aliases into their /etc/hosts.`,
}

// Execute runs the CLI.
func Execute(version, commit, date string) error {
	BuildVersion = version
	BuildCommit = commit
	BuildDate = date
	return rootCmd.Execute()
}
