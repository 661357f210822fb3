package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cvsync/internal/cli"
	"cvsync/internal/config"
	"cvsync/internal/errors"
)

func main() {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Resolve secrets from Vault when configured
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		logger.LogError(err, "Failed to load secrets from Vault")
		os.Exit(1)
	}
	if cfg.Vault.Enabled {
		// Secrets were deferred to Vault; check the config is now complete
		if err := cfg.Validate(); err != nil {
			logger.LogError(err, "Configuration invalid after Vault secret resolution")
			os.Exit(1)
		}
	}

	// Log startup
	logger.Info("Starting cvsync",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider,
		"store_mock_mode", cfg.Store.MockMode)

	// Execute command with cancellable context
	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Application execution failed")
		os.Exit(cli.ExitCode(err))
	}
}
