package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amlakplus/backoffice/internal/api"
	"github.com/amlakplus/backoffice/internal/config"
	"github.com/amlakplus/backoffice/internal/db"
	"github.com/amlakplus/backoffice/internal/ledger"
	"github.com/amlakplus/backoffice/internal/logger"
	"github.com/amlakplus/backoffice/internal/receipts"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
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
			chart := ledger.NewChart(overrides)
			service := ledger.NewService(conn, chart, log)
			if err := service.EnsureBaseChart(); err != nil {
				return fmt.Errorf("failed to set up chart of accounts: %w", err)
			}

			store, err := receipts.Open(cfg.ReceiptsPath)
			if err != nil {
				return fmt.Errorf("failed to open receipt store: %w", err)
			}
			defer store.Close()

			server := &http.Server{
				Addr:         cfg.Addr,
				Handler:      api.NewRouter(service, store),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Str("db", cfg.DBPath).Msg("server starting")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}
