package prism

import (
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Report accumulates findings for one validation run. It is safe for
// concurrent accumulation by multiple goroutines; reading methods take a
// point-in-time snapshot, so a partially accumulated report is always
// valid and summarizable.
type Report struct {
	mu       sync.Mutex
	findings []Finding

	// RunID uniquely identifies this validation run.
	RunID uuid.UUID

	// SchemaVersion is the resolved schema version for the run. Empty when
	// resolution failed before any per-file evaluation.
	SchemaVersion string

	// StartedAt is when the run began.
	StartedAt time.Time
}

// Summary holds the derived aggregates of a report.
type Summary struct {
	Total    int          `json:"total"`
	Errors   int          `json:"errors"`
	Warnings int          `json:"warnings"`
	Infos    int          `json:"infos"`
	ByCode   map[Code]int `json:"byCode"`
}

// NewReport creates an empty report stamped with a fresh run ID.
func NewReport() *Report {
	return &Report{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}
}

// Accumulate appends findings to the report.
func (r *Report) Accumulate(findings ...Finding) {
	if len(findings) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, findings...)
}

// Verdict derives the final outcome. The rule is deliberately singular:
// any Error-severity finding forces FAIL; absence of errors is PASS
// regardless of warning or info counts. The result is independent of
// accumulation order.
func (r *Report) Verdict() Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.findings {
		if f.Severity == SeverityError {
			return VerdictFail
		}
	}
	return VerdictPass
}

// Summarize returns aggregate counts per severity and per code.
// Summarizing twice without further accumulation yields identical output.
func (r *Report) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Total:  len(r.findings),
		ByCode: make(map[Code]int),
	}
	for _, f := range r.findings {
		switch f.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		default:
			s.Infos++
		}
		s.ByCode[f.Code]++
	}
	return s
}

// Findings returns a sorted copy of the accumulated findings. Ordering is
// deterministic: severity descending, then path lexicographically, then
// code, then field pointer.
func (r *Report) Findings() []Finding {
	r.mu.Lock()
	out := make([]Finding, len(r.findings))
	copy(out, r.findings)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// reportJSON is the serialized shape of a report.
type reportJSON struct {
	RunID         uuid.UUID `json:"runId"`
	SchemaVersion string    `json:"schemaVersion,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	Verdict       Verdict   `json:"verdict"`
	Summary       Summary   `json:"summary"`
	Findings      []Finding `json:"findings"`
}

// MarshalJSON serializes the report with sorted findings and derived
// aggregates included.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		RunID:         r.RunID,
		SchemaVersion: r.SchemaVersion,
		StartedAt:     r.StartedAt,
		Verdict:       r.Verdict(),
		Summary:       r.Summarize(),
		Findings:      r.Findings(),
	})
}
