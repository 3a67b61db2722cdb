package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireDatasetPath validates that exactly one dataset_path argument is
// provided, with a usage hint when it is missing.
func RequireDatasetPath(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <dataset_path>

Usage: %s

Example:
  %s ./study-2025`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}

// RequireDraftFile validates the single draft sidecar argument of
// `prism library gate`.
func RequireDraftFile(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <draft_file>

Usage: %s

Example:
  %s ./drafts/task-new_beh.json --library ./library`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}

// RequireLibraryDir validates the single library directory argument of
// `prism library check`.
func RequireLibraryDir(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <library_dir>

Usage: %s

Example:
  %s ./library`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}
