package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "ticketbridge",
	Short: "Bridge Discord support threads and the staff web panel",
	Long: `ticketbridge opens support tickets as Discord threads, mirrors the
conversation into Postgres and serves the staff panel API that replies,
assigns, tags and closes tickets from the web.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and the process logger shared by every command.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logger, nil
}
