package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"cvsync/internal/common"
	"cvsync/internal/schema"
	"cvsync/internal/store"
	"cvsync/internal/types"

	"github.com/spf13/cobra"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Generate a schema mapping against the remote table",
	Long: `Generate a mapping from the internal field vocabulary to the remote
table's column names. Remote fields are discovered live from the record store
unless --remote-fields points to a JSON array of field names. Suggestions
below the accept threshold are left unmapped for manual review.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if mapConfig.OutputFormat == "" {
			mapConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(mapConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runMap,
}

var (
	mapConfig           common.CommandConfig
	mapRemoteFieldsFile string
	mapSave             bool
	mapAcceptThreshold  float64
	mapAutoApply        float64
)

func init() {
	mapCmd.Flags().StringVarP(&mapConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	mapCmd.Flags().StringVar(&mapConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	mapCmd.Flags().StringVar(&mapRemoteFieldsFile, "remote-fields", "", "JSON file with remote field names (skips live discovery)")
	mapCmd.Flags().BoolVar(&mapSave, "save", false, "Write the final mapping to the configured mapping file")
	mapCmd.Flags().Float64Var(&mapAcceptThreshold, "accept-threshold", 0, "Minimum score to accept a suggestion (default from config)")
	mapCmd.Flags().Float64Var(&mapAutoApply, "auto-apply-threshold", 0, "Score treated as safe to apply unreviewed (default from config)")

	_ = mapCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	opts := schema.Options{
		AutoApplyThreshold: cfg.Mapper.AutoApplyThreshold,
		AcceptThreshold:    cfg.Mapper.AcceptThreshold,
	}
	if cmd.Flags().Changed("accept-threshold") {
		opts.AcceptThreshold = mapAcceptThreshold
	}
	if cmd.Flags().Changed("auto-apply-threshold") {
		opts.AutoApplyThreshold = mapAutoApply
	}

	remoteFields, err := resolveRemoteFields(cmd, cfg.Store.Table)
	if err != nil {
		return err
	}

	logger.Info("Generating schema mapping",
		"internal_keys", len(types.InternalFields),
		"remote_fields", len(remoteFields),
		"accept_threshold", opts.AcceptThreshold)

	result := schema.GenerateMapping(types.InternalFields, remoteFields, opts)

	outputHandler := common.NewOutputHandler(logger)
	if err := outputHandler.HandleOutput(result, mapConfig); err != nil {
		return err
	}

	if mapSave {
		if err := schema.SaveMapping(result.FinalMapping, cfg.Mapper.MappingFile); err != nil {
			return fmt.Errorf("failed to save mapping: %w", err)
		}
		logger.Info("Mapping saved",
			"file", cfg.Mapper.MappingFile,
			"entries", len(result.FinalMapping))
	}

	return nil
}

// resolveRemoteFields loads remote field names from the --remote-fields file
// or discovers them live from the record store.
func resolveRemoteFields(cmd *cobra.Command, table string) ([]string, error) {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if mapRemoteFieldsFile != "" {
		data, err := os.ReadFile(mapRemoteFieldsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read remote fields file: %w", err)
		}
		var fields []string
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("failed to parse remote fields file: %w", err)
		}
		return fields, nil
	}

	storeClient := store.New(cfg.Store, logger)
	fields, err := storeClient.TableFields(cmd.Context(), table, false)
	if err != nil {
		return nil, fmt.Errorf("failed to discover remote fields: %w", err)
	}
	return fields, nil
}
