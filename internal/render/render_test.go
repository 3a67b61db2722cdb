package render

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-data/prism/internal/stats"
	"github.com/prism-data/prism/pkg/prism"
)

func sampleReport() *prism.Report {
	report := prism.NewReport()
	report.SchemaVersion = "1.0.0"
	report.Accumulate(
		prism.Finding{
			Code:     prism.CodeMissingRequiredSidecar,
			Severity: prism.SeverityError,
			Path:     "sub-01/physio/sub-01_task-rest_physio.edf",
			Message:  "suffix 'physio' requires a JSON sidecar and none was found",
		},
		prism.Finding{
			Code:     prism.CodeUnknownEntity,
			Severity: prism.SeverityWarning,
			Path:     "sub-02/beh/sub-02_task-ads_flavor-x_beh.tsv",
			Field:    "flavor",
			Message:  "entity 'flavor' is not in the schema vocabulary",
		},
	)
	return report
}

// TestText_PlainOutput: no color codes without a terminal, findings in
// severity order, verdict last.
func TestText_PlainOutput(t *testing.T) {
	var b strings.Builder
	r := NewWithColor(&b, false)

	comp := &stats.Summary{Subjects: 2, Sessions: 0, Tasks: 2, Files: 2}
	require.NoError(t, r.Text(sampleReport(), comp))
	out := b.String()

	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "MissingRequiredSidecar")
	assert.Contains(t, out, "sub-01/physio/sub-01_task-rest_physio.edf")
	assert.Contains(t, out, "[flavor]")
	assert.Contains(t, out, "dataset: 2 subjects")
	assert.Contains(t, out, "findings: 1 error, 1 warning, 0 infos")
	assert.Contains(t, out, "verdict: FAIL")

	errorLine := strings.Index(out, "ERROR")
	warningLine := strings.Index(out, "WARNING")
	assert.Less(t, errorLine, warningLine)
}

// TestText_PassWithWarnings annotates a clean-but-warned verdict.
func TestText_PassWithWarnings(t *testing.T) {
	report := prism.NewReport()
	report.Accumulate(prism.Finding{
		Code:     prism.CodeOrphanedSidecar,
		Severity: prism.SeverityWarning,
		Path:     "task-rest_physio.json",
		Message:  "sidecar has no matching data file",
	})

	var b strings.Builder
	require.NoError(t, NewWithColor(&b, false).Text(report, nil))

	assert.Contains(t, b.String(), "verdict: PASS (with warnings)")
}

// TestJSON_Shape: the machine output carries verdict, summary and sorted
// findings.
func TestJSON_Shape(t *testing.T) {
	var b strings.Builder
	require.NoError(t, NewWithColor(&b, false).JSON(sampleReport()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(b.String()), &decoded))

	assert.Equal(t, "FAIL", decoded["verdict"])
	assert.Equal(t, "1.0.0", decoded["schemaVersion"])

	summary, ok := decoded["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), summary["total"])
	assert.Equal(t, float64(1), summary["errors"])

	findings, ok := decoded["findings"].([]interface{})
	require.True(t, ok)
	require.Len(t, findings, 2)
	first, ok := findings[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "MissingRequiredSidecar", first["code"])
}
