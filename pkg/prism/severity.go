package prism

import "fmt"

// Severity ranks a finding. Ordering matters: Error > Warning > Info.
// The report sorts by severity descending and the verdict depends only on
// the presence of Error-severity findings.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the lowercase name used in serialized reports.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MarshalJSON serializes the severity as its lowercase name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Verdict is the final outcome of a validation run.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)
