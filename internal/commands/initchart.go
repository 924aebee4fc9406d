package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amlakplus/backoffice/internal/config"
	"github.com/amlakplus/backoffice/internal/db"
	"github.com/amlakplus/backoffice/internal/ledger"
	"github.com/amlakplus/backoffice/internal/logger"
)

func newInitChartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-chart",
		Short: "Create the database schema and base chart of accounts",
		Long: `init-chart creates the database file, schema, and the base chart of
accounts. Running it again is harmless; existing accounts are never changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Debug)

			conn, err := db.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer conn.Close()

			overrides, err := config.LoadChartOverrides(cfg.ChartFile)
			if err != nil {
				return err
			}
			service := ledger.NewService(conn, ledger.NewChart(overrides), log)
			if err := service.EnsureBaseChart(); err != nil {
				return fmt.Errorf("failed to set up chart of accounts: %w", err)
			}

			accounts, err := ledger.ListAccounts(conn, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chart ready: %d accounts in %s\n", len(accounts), cfg.DBPath)
			return nil
		},
	}
}
