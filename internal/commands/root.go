// Package commands defines the back-office CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var envFile string

// NewRootCommand builds the top-level command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "backoffice",
		Short: "Brokerage back-office ledger service",
		Long: `backoffice runs the double-entry ledger engine for a real-estate
brokerage: commission recognition, settlements, journal documents, and the
pending-approval workflow for field agents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (defaults to ./.env when present)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newInitChartCommand())

	return root
}
