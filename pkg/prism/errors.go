package prism

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	report, err := runner.Run(ctx, cfg)
//	if errors.Is(err, prism.ErrUnsupportedSchemaVersion) {
//	    // No meaningful validation was possible.
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDatasetNotFound indicates the dataset root does not exist or is
	// not a directory.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrUnsupportedSchemaVersion indicates the dataset declares a schema
	// version the registry cannot resolve. This is fatal for a run: no
	// schema means no rules to apply.
	ErrUnsupportedSchemaVersion = errors.New("unsupported schema version")

	// ErrValidationFailed indicates the run completed and the report's
	// verdict is FAIL.
	ErrValidationFailed = errors.New("validation failed")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitValidationFailed (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrDatasetNotFound):
		return ExitDatasetNotFound
	case errors.Is(err, ErrUnsupportedSchemaVersion):
		return ExitUnsupportedSchema
	case errors.Is(err, ErrValidationFailed):
		return ExitValidationFailed
	}

	if isUsageError(err) {
		return ExitUsageError
	}

	return ExitValidationFailed
}

// isUsageError recognizes the error messages cobra and pflag produce for
// command-line misuse, which carry no sentinel to test against.
func isUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"invalid argument",
		"required flag",
		"arg(s), received",
		"missing required argument",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
