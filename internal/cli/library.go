package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prism-data/prism/internal/checksum"
	"github.com/prism-data/prism/internal/files/filesystem"
	"github.com/prism-data/prism/internal/library"
	"github.com/prism-data/prism/internal/schema"
	"github.com/prism-data/prism/pkg/prism"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Survey library consistency tools",
	Long: `The library commands check that every item ID in a survey library
carries one definition: re-declaring an item identically is fine,
declaring it differently in two files is a conflict.`,
}

var libraryCheckCmd = &cobra.Command{
	Use:   "check <library_dir>",
	Short: "Check a survey library for conflicting item definitions",
	Long: `Check scans every JSON sidecar under the directory, indexes declared
item IDs, and reports items defined differently in different files.
Description wording is ignored when comparing definitions; the scale,
type, units and ranges must match.

Examples:
  prism library check ./library
  prism library check ./library --json`,
	Args: RequireLibraryDir,
	RunE: runLibraryCheck,
}

var libraryGateCmd = &cobra.Command{
	Use:   "gate <draft_file>",
	Short: "Check a draft instrument against the published library",
	Long: `Gate decides whether a draft survey instrument may be published: the
draft must not redefine any published item divergently. New item IDs
and identical redefinitions pass; a divergent redefinition fails the
gate with exit code 1.

Examples:
  prism library gate ./drafts/task-new_beh.json --library ./library`,
	Args: RequireDraftFile,
	RunE: runLibraryGate,
}

type libraryFlagValues struct {
	schemaVersion string
	libraryDir    string
	jsonOut       bool
	noColor       bool
}

var libraryFlags libraryFlagValues

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryCheckCmd)
	libraryCmd.AddCommand(libraryGateCmd)

	for _, cmd := range []*cobra.Command{libraryCheckCmd, libraryGateCmd} {
		cmd.Flags().StringVar(&libraryFlags.schemaVersion, "schema-version", "",
			"Schema version whose survey rules define the reserved sidecar fields")
		cmd.Flags().BoolVar(&libraryFlags.jsonOut, "json", false,
			"Emit findings as JSON on stdout")
		cmd.Flags().BoolVar(&libraryFlags.noColor, "no-color", false,
			"Disable colored output")
	}

	libraryGateCmd.Flags().StringVar(&libraryFlags.libraryDir, "library", "",
		"Published library directory the draft is checked against (required)")
	_ = libraryGateCmd.MarkFlagRequired("library")
}

func runLibraryCheck(cmd *cobra.Command, args []string) error {
	checker, err := newDirChecker()
	if err != nil {
		return err
	}

	findings, err := checker.CheckDir(args[0])
	if err != nil {
		return err
	}
	return finishLibraryCommand(findings, checker.SchemaVersion)
}

func runLibraryGate(cmd *cobra.Command, args []string) error {
	checker, err := newDirChecker()
	if err != nil {
		return err
	}

	findings, err := checker.Gate(args[0], libraryFlags.libraryDir)
	if err != nil {
		return err
	}
	return finishLibraryCommand(findings, checker.SchemaVersion)
}

// newDirChecker resolves the schema version and derives the reserved
// sidecar keys from the survey rules, so declared metadata fields are
// never mistaken for item definitions.
func newDirChecker() (*library.DirChecker, error) {
	registry, err := schema.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("building schema registry: %w (%w)", err, prism.ErrInvalidConfig)
	}
	effective, err := registry.Resolve(libraryFlags.schemaVersion)
	if err != nil {
		return nil, err
	}

	reserved := make([]string, 0)
	seen := make(map[string]bool)
	for _, suffix := range effective.Suffixes() {
		rule, ok := effective.Lookup(suffix)
		if !ok || (rule.Modality != "survey" && rule.Modality != "biometrics") {
			continue
		}
		for _, field := range rule.Sidecar.Fields {
			if !seen[field.Name] {
				seen[field.Name] = true
				reserved = append(reserved, field.Name)
			}
		}
	}

	return &library.DirChecker{
		Provider:      filesystem.NewOSProvider(),
		Calc:          checksum.New(),
		SchemaVersion: effective.Version,
		Reserved:      reserved,
	}, nil
}

func finishLibraryCommand(findings []prism.Finding, schemaVersion string) error {
	if err := renderFindings(findings, schemaVersion, libraryFlags.jsonOut, libraryFlags.noColor); err != nil {
		return err
	}
	for _, f := range findings {
		if f.Severity == prism.SeverityError {
			return prism.ErrValidationFailed
		}
	}
	return nil
}
