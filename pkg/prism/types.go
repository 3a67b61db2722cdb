package prism

import (
	"errors"
	"fmt"
)

// RunConfig contains all parameters needed for a validation run.
type RunConfig struct {
	// DatasetPath is the root directory of the dataset to validate.
	DatasetPath string

	// SchemaVersion overrides the version declared by the dataset.
	// Empty means: use the dataset_description.json declaration, falling
	// back to DefaultSchemaVersion.
	SchemaVersion string

	// SchemaDir optionally overlays rule definitions from a directory on
	// top of the builtin set.
	SchemaDir string

	// IgnorePatterns are additional doublestar glob patterns excluded from
	// the scan, merged with the builtin system-file set.
	IgnorePatterns []string

	// Workers bounds parallel per-file evaluation. Zero means one worker
	// per CPU.
	Workers int

	// Verbose enables detailed logging.
	Verbose bool
}

// Validate checks if the RunConfig has all required fields and valid
// values. It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.DatasetPath == "" {
		errs = append(errs, fmt.Errorf("DatasetPath is required: %w", ErrInvalidConfig))
	}

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
