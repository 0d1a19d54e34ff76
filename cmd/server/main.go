package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shuffler/auth-gateway/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "server",
		Short:        "Shuffler access-code auth gateway",
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newTokenCmd(),
		newRateLimitCmd(),
		newAttemptsCmd(),
	)

	return rootCmd
}

// newLogger builds the process logger for the configured environment
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
