package prism

// Logger is the pluggable logging interface a validation run writes
// progress to. Implementations must be safe for concurrent use: the
// runner logs from multiple evaluation workers.
type Logger interface {
	// Verbose logs per-file diagnostic detail.
	// Only emitted when verbose mode is enabled.
	Verbose(format string, args ...interface{})

	// Info logs run-level progress messages.
	Info(format string, args ...interface{})

	// Error logs failures that do not abort the run.
	Error(format string, args ...interface{})
}
