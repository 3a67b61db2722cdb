package prism

import "fmt"

// Finding is a single validation outcome. Findings are immutable records:
// every field is set at construction and never changed, and they carry no
// references to mutable shared state.
type Finding struct {
	// Code classifies the finding. See codes.go for the closed set.
	Code Code `json:"code"`

	// Severity ranks the finding. Any Error-severity finding forces the
	// report verdict to FAIL.
	Severity Severity `json:"severity"`

	// Path is the dataset-relative file path the finding refers to, using
	// Unix forward slashes. Empty for dataset-level findings.
	Path string `json:"path,omitempty"`

	// Field optionally points at the entity key or sidecar field within
	// the file, e.g. "ses" or "SamplingFrequency" or "items.age.Levels".
	Field string `json:"field,omitempty"`

	// Message is the human-readable description.
	Message string `json:"message"`

	// SchemaVersion is the resolved schema version in effect when the
	// finding was produced. Empty when no schema was resolved.
	SchemaVersion string `json:"schemaVersion,omitempty"`
}

// String formats the finding for log output: severity, code, location,
// message.
func (f Finding) String() string {
	loc := f.Path
	if f.Field != "" {
		if loc != "" {
			loc += ":" + f.Field
		} else {
			loc = f.Field
		}
	}
	if loc == "" {
		return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Code, f.Message)
	}
	return fmt.Sprintf("[%s] %s (%s): %s", f.Severity, f.Code, loc, f.Message)
}
