// Package runner orchestrates a full validation run: scan, schema
// resolution, parallel per-file evaluation, the cross-file library
// barrier, dataset statistics, and report assembly.
package runner

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/prism-data/prism/internal/checksum"
	"github.com/prism-data/prism/internal/engine"
	"github.com/prism-data/prism/internal/files/filesystem"
	"github.com/prism-data/prism/internal/files/scanner"
	"github.com/prism-data/prism/internal/library"
	"github.com/prism-data/prism/internal/logging"
	"github.com/prism-data/prism/internal/schema"
	"github.com/prism-data/prism/internal/stats"
	"github.com/prism-data/prism/pkg/prism"
)

// Runner executes validation runs against one dataset.
type Runner struct {
	cfg      prism.RunConfig
	logger   prism.Logger
	provider filesystem.Provider
	registry *schema.Registry
	calc     checksum.Calculator

	composition *stats.Summary
}

// New creates a runner over the OS filesystem. The configuration is
// validated and the schema registry built up front; both failures wrap
// prism.ErrInvalidConfig so the CLI maps them to the config exit code.
func New(cfg prism.RunConfig, logger prism.Logger) (*Runner, error) {
	return NewWithProvider(cfg, logger, filesystem.NewOSProvider())
}

// NewWithProvider creates a runner over a custom filesystem provider.
func NewWithProvider(cfg prism.RunConfig, logger prism.Logger, provider filesystem.Provider) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	var registry *schema.Registry
	var err error
	if cfg.SchemaDir != "" {
		registry, err = schema.NewRegistryWithOverlay(cfg.SchemaDir)
	} else {
		registry, err = schema.NewRegistry()
	}
	if err != nil {
		return nil, fmt.Errorf("building schema registry: %w (%w)", err, prism.ErrInvalidConfig)
	}

	return &Runner{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		registry: registry,
		calc:     checksum.New(),
	}, nil
}

// Run performs one validation pass. The returned report is always
// non-nil and valid, even on fatal errors and on cancellation part-way
// through; the error is non-nil only for conditions that abort the run
// (dataset not found, unsupported schema version, context cancellation).
// A FAIL verdict is not an error.
func (r *Runner) Run(ctx context.Context) (*prism.Report, error) {
	report := prism.NewReport()

	info, err := r.provider.Stat(r.cfg.DatasetPath)
	if err != nil {
		return report, fmt.Errorf("dataset path %s: %w", r.cfg.DatasetPath, prism.ErrDatasetNotFound)
	}
	if !info.IsDir() {
		return report, fmt.Errorf("dataset path %s is not a directory: %w", r.cfg.DatasetPath, prism.ErrDatasetNotFound)
	}

	r.logger.Verbose("scanning dataset at %s", r.cfg.DatasetPath)
	s := scanner.NewWithProvider(r.provider)
	s.Ignore = r.cfg.IgnorePatterns
	scanned, err := s.Scan(r.cfg.DatasetPath)
	if err != nil {
		return report, fmt.Errorf("scanning dataset: %w", err)
	}
	report.Accumulate(scanned.Findings...)
	r.logger.Verbose("scan found %d data files, %d findings", len(scanned.Files), len(scanned.Findings))

	if scanned.Description == nil && !descriptionReported(scanned.Findings) {
		report.Accumulate(prism.Finding{
			Code:     prism.CodeMissingDatasetDescription,
			Severity: prism.SeverityError,
			Path:     prism.DatasetDescriptionFile,
			Message:  "dataset has no " + prism.DatasetDescriptionFile,
		})
	}

	requested := r.requestedVersion(scanned.Description)
	effective, err := r.registry.Resolve(requested)
	if err != nil {
		report.Accumulate(prism.Finding{
			Code:     prism.CodeUnsupportedSchemaVersion,
			Severity: prism.SeverityError,
			Message:  err.Error(),
		})
		return report, err
	}
	report.SchemaVersion = effective.Version
	r.logger.Verbose("resolved schema version %s for request %q", effective.Version, requested)

	tracker := stats.NewTracker()
	for _, f := range scanned.Files {
		tracker.Observe(f.Entities)
	}
	summary := tracker.Summarize()
	r.composition = &summary

	if err := r.evaluateFiles(ctx, scanned.Files, effective, report); err != nil {
		return report, err
	}

	report.Accumulate(r.checkLibrary(scanned.Files, effective)...)
	report.Accumulate(tracker.Findings(effective.Version)...)

	totals := report.Summarize()
	r.logger.Info("validation complete: %d errors, %d warnings, %d infos",
		totals.Errors, totals.Warnings, totals.Infos)
	return report, nil
}

// Composition returns the dataset composition observed by the most
// recent Run, nil before the first run.
func (r *Runner) Composition() *stats.Summary {
	return r.composition
}

// evaluateFiles runs the per-file rule engine in a bounded worker pool.
// Files are independent of one another; the report is the only shared
// sink and guards itself.
func (r *Runner) evaluateFiles(ctx context.Context, files []scanner.DataFile, effective *schema.EffectiveSchema, report *prism.Report) error {
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, f := range files {
		f := f
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			findings := engine.Evaluate(engine.File{
				Path:        f.RelPath,
				Entities:    f.Entities,
				Datatype:    f.Datatype,
				HasSidecar:  f.HasSidecar(),
				SidecarPath: f.SidecarPath,
			}, f.Sidecar, effective)
			report.Accumulate(findings...)
			return nil
		})
	}
	return g.Wait()
}

// checkLibrary runs the cross-file consistency barrier over every survey
// and biometrics sidecar seen during the scan. It runs strictly after the
// per-file wave; conflicts are only decidable with the full item set.
func (r *Runner) checkLibrary(files []scanner.DataFile, effective *schema.EffectiveSchema) []prism.Finding {
	var items []library.SourcedDefinition
	seen := make(map[string]bool)

	for _, f := range files {
		if f.Sidecar == nil || seen[f.SidecarPath] {
			continue
		}
		rule, ok := effective.Lookup(f.Entities.Suffix)
		if !ok || (rule.Modality != "survey" && rule.Modality != "biometrics") {
			continue
		}
		seen[f.SidecarPath] = true

		reserved := make([]string, 0, len(rule.Sidecar.Fields))
		for _, field := range rule.Sidecar.Fields {
			reserved = append(reserved, field.Name)
		}
		collector := library.NewCollector(r.calc, reserved...)
		items = append(items, collector.Collect(f.SidecarPath, f.Sidecar)...)
	}

	return library.Check(items, effective.Version)
}

func (r *Runner) requestedVersion(description map[string]interface{}) string {
	if r.cfg.SchemaVersion != "" {
		return r.cfg.SchemaVersion
	}
	for _, key := range []string{"PrismVersion", "SchemaVersion"} {
		if v, ok := description[key].(string); ok && v != "" {
			return v
		}
	}
	return prism.DefaultSchemaVersion
}

// descriptionReported checks whether the scan already explained why no
// description was decoded (unreadable or malformed file).
func descriptionReported(findings []prism.Finding) bool {
	for _, f := range findings {
		if f.Path == prism.DatasetDescriptionFile {
			return true
		}
	}
	return false
}
