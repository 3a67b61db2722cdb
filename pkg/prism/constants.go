package prism

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Validation completed with verdict PASS (warnings allowed)
	ExitValidationFailed  = 1  // Validation completed with verdict FAIL
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration or parameters
	ExitDatasetNotFound   = 14 // Dataset path missing or not a directory
	ExitUnsupportedSchema = 15 // Declared schema version unknown to the registry
)

const (
	// DefaultSchemaVersion is used when neither the dataset description nor
	// the CLI declares a schema version.
	DefaultSchemaVersion = "1.0.0"

	// DatasetDescriptionFile is the dataset-level metadata file expected at
	// the dataset root.
	DatasetDescriptionFile = "dataset_description.json"

	// SidecarExtension is the extension of companion metadata files.
	SidecarExtension = ".json"

	// MaxMessagePreviewLength is the maximum number of characters of a
	// sidecar value shown in finding messages. Keeps large payloads from
	// flooding the report.
	MaxMessagePreviewLength = 120
)
