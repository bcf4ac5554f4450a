package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded Postgres migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		if cfg.Postgres.DSN == "" {
			return errors.New("POSTGRES_DSN is required")
		}
		cfg.Postgres.RunMigrations = false
		pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer pg.Close()

		names, err := persistence.MigrationNames()
		if err != nil {
			return err
		}
		if err := persistence.RunMigrations(cmd.Context(), pg.Pool, logger); err != nil {
			return err
		}
		logger.Info("database schema is up to date", zap.Strings("files", names))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
