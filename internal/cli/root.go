// Package cli wires the prism commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "Research dataset validator",
	Long: `prism validates research datasets against a versioned schema: file
naming, required metadata sidecars, field types and ranges, survey scale
definitions, and cross-file consistency of the survey library.

Validation never mutates the dataset. The verdict is PASS unless at
least one error-severity finding exists; warnings alone never fail a
run.

Exit Codes:
  0  - Validation passed (warnings allowed)
  1  - Validation failed
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  14 - Dataset path missing or not a directory
  15 - Unsupported schema version`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for prism")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
