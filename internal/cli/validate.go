package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prism-data/prism/internal/config"
	"github.com/prism-data/prism/internal/logging"
	"github.com/prism-data/prism/internal/runner"
	"github.com/prism-data/prism/pkg/prism"
)

var validateCmd = &cobra.Command{
	Use:   "validate <dataset_path>",
	Short: "Validate a dataset against its schema",
	Long: `Validate walks the dataset tree, checks every data file's name and
metadata sidecar against the resolved schema version, runs the
cross-file survey-library consistency check, and prints a
severity-ranked report.

Schema version resolution, in order of precedence:
  1. --schema-version flag
  2. PRISM_SCHEMA_VERSION in a --params-file
  3. schema_version in prism.yaml at the dataset root
  4. PrismVersion in dataset_description.json
  5. the default version

A version without an exact match resolves to the highest known version
with the same major that does not exceed the request. "stable" and
"latest" resolve to the highest known version.

Examples:
  # Validate with the dataset's declared version
  prism validate ./study-2025

  # Pin the schema version and emit machine-readable output
  prism validate ./study-2025 --schema-version 1.1.0 --json

  # Re-validate automatically while editing
  prism validate ./study-2025 --watch`,
	Args: RequireDatasetPath,
	RunE: runValidate,
}

type validateFlagValues struct {
	schemaVersion string
	schemaDir     string
	paramsFiles   []string
	ignore        []string
	workers       int
	jsonOut       bool
	noColor       bool
	watch         bool
}

var validateFlags validateFlagValues

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.schemaVersion, "schema-version", "",
		"Schema version to validate against (overrides the dataset declaration)\n"+
			"Accepts an exact version, \"stable\" or \"latest\"")
	validateCmd.Flags().StringVar(&validateFlags.schemaDir, "schema-dir", "",
		"Directory of rule definition YAML files overlaid on the builtin set")
	validateCmd.Flags().StringSliceVar(&validateFlags.paramsFiles, "params-file", nil,
		"Load parameters from .env files (can be specified multiple times)\n"+
			"Later files override earlier ones, flags override all")
	validateCmd.Flags().StringSliceVar(&validateFlags.ignore, "ignore", nil,
		"Additional doublestar glob patterns excluded from the scan\n"+
			"Merged with prism.yaml and the dataset's .prismignore file")
	validateCmd.Flags().IntVar(&validateFlags.workers, "workers", 0,
		"Parallel per-file evaluation workers (default: one per CPU)")
	validateCmd.Flags().BoolVar(&validateFlags.jsonOut, "json", false,
		"Emit the report as JSON on stdout")
	validateCmd.Flags().BoolVar(&validateFlags.noColor, "no-color", false,
		"Disable colored output")
	validateCmd.Flags().BoolVar(&validateFlags.watch, "watch", false,
		"Stay running and re-validate when files under the dataset change")
}

func runValidate(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	datasetPath := args[0]

	cfg, err := buildRunConfig(datasetPath, verbose)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)
	r, err := runner.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if validateFlags.watch {
		return watchAndValidate(ctx, r, datasetPath, logger)
	}
	return validateOnce(ctx, r)
}

// buildRunConfig layers configuration sources: prism.yaml at the dataset
// root, then parameter files, then flags.
func buildRunConfig(datasetPath string, verbose bool) (prism.RunConfig, error) {
	projectCfg, err := config.Load(datasetPath)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return prism.RunConfig{}, fmt.Errorf("%w: %w", err, prism.ErrInvalidConfig)
		}
		projectCfg = &config.ProjectConfig{}
	}

	for _, file := range validateFlags.paramsFiles {
		params, err := config.LoadParams(file)
		if err != nil {
			return prism.RunConfig{}, fmt.Errorf("%w: %w", err, prism.ErrInvalidConfig)
		}
		if err := projectCfg.Apply(params); err != nil {
			return prism.RunConfig{}, fmt.Errorf("%w: %w", err, prism.ErrInvalidConfig)
		}
	}

	if validateFlags.schemaVersion != "" {
		projectCfg.SchemaVersion = validateFlags.schemaVersion
	}
	if validateFlags.schemaDir != "" {
		projectCfg.SchemaDir = validateFlags.schemaDir
	}
	if validateFlags.workers != 0 {
		projectCfg.Workers = validateFlags.workers
	}

	return prism.RunConfig{
		DatasetPath:    datasetPath,
		SchemaVersion:  projectCfg.SchemaVersion,
		SchemaDir:      projectCfg.SchemaDir,
		IgnorePatterns: append(projectCfg.Ignore, validateFlags.ignore...),
		Workers:        projectCfg.Workers,
		Verbose:        verbose,
	}, nil
}

func validateOnce(ctx context.Context, r *runner.Runner) error {
	report, err := r.Run(ctx)
	if renderErr := renderReport(report, r.Composition()); renderErr != nil && err == nil {
		err = renderErr
	}
	if err != nil {
		return err
	}
	if report.Verdict() == prism.VerdictFail {
		return prism.ErrValidationFailed
	}
	return nil
}
