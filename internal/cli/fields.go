package cli

import (
	"fmt"

	"cvsync/internal/store"

	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the remote table's field names",
	Long: `Discover and print the remote table's field names, as seen on its
most recent record. Useful for checking what the schema mapper will be
matching against. Results are cached; use --refresh to bypass the cache.`,
	RunE: runFields,
}

var (
	fieldsTable   string
	fieldsRefresh bool
)

func init() {
	fieldsCmd.Flags().StringVar(&fieldsTable, "table", "", "Table name (default from config)")
	fieldsCmd.Flags().BoolVar(&fieldsRefresh, "refresh", false, "Bypass the field cache and query the store")
}

func runFields(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	table := fieldsTable
	if table == "" {
		table = cfg.Store.Table
	}

	storeClient := store.New(cfg.Store, logger)
	fields, err := storeClient.TableFields(cmd.Context(), table, fieldsRefresh)
	if err != nil {
		return fmt.Errorf("failed to discover fields: %w", err)
	}

	if len(fields) == 0 {
		fmt.Printf("No fields found in table %q (empty table or mock mode)\n", table)
		return nil
	}

	fmt.Printf("Fields in table %q (%d):\n", table, len(fields))
	for _, field := range fields {
		fmt.Printf("  %s\n", field)
	}
	return nil
}
