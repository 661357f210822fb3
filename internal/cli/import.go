package cli

import (
	stderrors "errors"
	"fmt"

	"cvsync/internal/common"
	"cvsync/internal/errors"
	"cvsync/internal/extract"
	"cvsync/internal/importer"
	"cvsync/internal/schema"
	"cvsync/internal/store"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import resumes into the record store",
	Long: `Import one resume file or every supported file in a directory.
Each resume is read as plain text, run through AI field extraction, coerced
into the store's field vocabulary, and inserted unless a record with the same
dedupe key already exists. Supported extensions: .txt, .md, .markdown, .text.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if importConfig.OutputFormat == "" {
			importConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(importConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runImport,
}

var (
	importConfig common.CommandConfig
	importTable  string
	importDryRun bool
)

func init() {
	importCmd.Flags().StringVarP(&importConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	importCmd.Flags().StringVar(&importConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	importCmd.Flags().StringVar(&importTable, "table", "", "Target table name (default from config)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Extract and coerce without inserting records")

	// Add completion for format flag
	_ = importCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// ImportFailuresError reports an import run where some files failed. The run
// itself completed; the summary was already written to the output target.
type ImportFailuresError struct {
	Count int
}

func (e *ImportFailuresError) Error() string {
	return fmt.Sprintf("%d resume(s) failed to import", e.Count)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	extractConfig := cfg.GetExtractConfig()
	extractService, err := extract.NewService(&extractConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to create extraction service: %w", err)
	}
	defer func() {
		if closeErr := extractService.Close(); closeErr != nil {
			logger.Warn("Failed to close extraction service", "error", closeErr)
		}
	}()

	storeClient := store.New(cfg.Store, logger)

	table := importTable
	if table == "" {
		table = cfg.Store.Table
	}

	fieldMapping, err := loadFieldMapping(cfg.Mapper.MappingFile, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting resume import",
		"path", args[0],
		"table", table,
		"dry_run", importDryRun,
		"mock_mode", storeClient.MockMode())

	imp := importer.New(
		extractService.Provider,
		storeClient,
		common.NewFileProcessor(logger, cfg.App.MaxFileSize),
		logger,
	)
	summary, err := imp.Run(cmd.Context(), args[0], importer.Options{
		Table:        table,
		KeyField:     cfg.Store.DedupeField,
		DryRun:       importDryRun,
		FieldMapping: fieldMapping,
	})
	if err != nil {
		return fmt.Errorf("failed to import resumes: %w", err)
	}

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(summary, importConfig); err != nil {
		return err
	}

	logger.Info("Import completed",
		"processed", summary.Processed,
		"inserted", summary.Inserted,
		"skipped_exists", summary.SkippedExists,
		"errors", summary.Errors)

	if summary.Errors > 0 {
		return &ImportFailuresError{Count: summary.Errors}
	}
	return nil
}

// loadFieldMapping reads the configured mapping file. A missing file is not
// an error: imports then use the internal field names as-is.
func loadFieldMapping(path string, logger *errors.Logger) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	mapping, err := schema.LoadMapping(path)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.Code == errors.ErrCodeMappingNotFound {
			logger.Debug("No mapping file found, using internal field names", "file", path)
			return nil, nil
		}
		return nil, err
	}

	logger.Info("Field mapping loaded", "file", path, "entries", len(mapping))
	return mapping, nil
}
