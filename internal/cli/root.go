package cli

import (
	"context"
	stderrors "errors"

	"cvsync/internal/config"
	"cvsync/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "cvsync",
	Short: "Import resumes into a record store with AI field extraction",
	Long: `Cvsync extracts structured candidate fields from plain-text resumes
using AI and upserts them into an Airtable-compatible record store. It can
also reconcile the internal field vocabulary against the store's live column
names, producing a reviewable schema mapping.`,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// ExitCode maps a command error to the process exit code. Partial import
// failures use a distinct code so batch callers can tell them from hard
// failures.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var importErr *ImportFailuresError
	if stderrors.As(err, &importErr) {
		return 2
	}
	return 1
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
