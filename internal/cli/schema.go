package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prism-data/prism/internal/schema"
	"github.com/prism-data/prism/pkg/prism"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the builtin schema registry",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known schema versions and their rules",
	Long: `List prints every schema version the registry can resolve, with the
file suffixes each version defines rules for.

Examples:
  prism schema list
  prism schema list --schema-dir ./schemas`,
	Args: cobra.NoArgs,
	RunE: runSchemaList,
}

var schemaListDir string

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaListCmd)

	schemaListCmd.Flags().StringVar(&schemaListDir, "schema-dir", "",
		"Directory of rule definition YAML files overlaid on the builtin set")
}

func runSchemaList(cmd *cobra.Command, args []string) error {
	var registry *schema.Registry
	var err error
	if schemaListDir != "" {
		registry, err = schema.NewRegistryWithOverlay(schemaListDir)
	} else {
		registry, err = schema.NewRegistry()
	}
	if err != nil {
		return fmt.Errorf("building schema registry: %w (%w)", err, prism.ErrInvalidConfig)
	}

	for _, version := range registry.Versions() {
		effective, err := registry.Resolve(version)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  suffixes: %s\n",
			version, strings.Join(effective.Suffixes(), ", "))
	}
	return nil
}
