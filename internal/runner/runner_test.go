package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-data/prism/internal/files/filesystem"
	"github.com/prism-data/prism/pkg/prism"
)

func newRunner(t *testing.T, cfg prism.RunConfig, p filesystem.Provider) *Runner {
	t.Helper()
	r, err := NewWithProvider(cfg, nil, p)
	require.NoError(t, err)
	return r
}

func goodDataset() *filesystem.MemoryProvider {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("dataset_description.json", `{"Name": "demo", "PrismVersion": "1.0.0"}`)
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.edf", "")
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.json",
		`{"SamplingFrequency": 256, "StartTime": 0, "Columns": ["cardiac"]}`)
	return p
}

func codes(findings []prism.Finding) map[prism.Code]int {
	out := make(map[prism.Code]int)
	for _, f := range findings {
		out[f.Code]++
	}
	return out
}

// TestRun_Pass: a conforming dataset yields a PASS report and no error.
func TestRun_Pass(t *testing.T) {
	r := newRunner(t, prism.RunConfig{DatasetPath: "."}, goodDataset())

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prism.VerdictPass, report.Verdict())
	assert.Equal(t, "1.0.0", report.SchemaVersion)
	assert.Empty(t, report.Findings())
}

// TestRun_DatasetNotFound: a missing dataset path aborts with the
// sentinel, report still usable.
func TestRun_DatasetNotFound(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	r := newRunner(t, prism.RunConfig{DatasetPath: "elsewhere"}, p)

	report, err := r.Run(context.Background())
	require.ErrorIs(t, err, prism.ErrDatasetNotFound)
	require.NotNil(t, report)
	assert.Equal(t, prism.ExitDatasetNotFound, prism.ExitCodeForError(err))
}

// TestRun_UnsupportedSchemaVersion: resolution failure aborts before any
// per-file evaluation; the report carries only the version finding.
func TestRun_UnsupportedSchemaVersion(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("dataset_description.json", `{"PrismVersion": "9.9.9"}`)
	p.AddFile("sub-01/physio/sub-01_physio.edf", "") // would fail evaluation

	r := newRunner(t, prism.RunConfig{DatasetPath: "."}, p)
	report, err := r.Run(context.Background())
	require.ErrorIs(t, err, prism.ErrUnsupportedSchemaVersion)
	assert.Equal(t, prism.ExitUnsupportedSchema, prism.ExitCodeForError(err))

	got := codes(report.Findings())
	assert.Equal(t, 1, got[prism.CodeUnsupportedSchemaVersion])
	assert.Zero(t, got[prism.CodeMissingRequiredEntity])
	assert.Zero(t, got[prism.CodeMissingRequiredSidecar])
}

// TestRun_VersionOverride: an explicit version wins over the dataset
// declaration.
func TestRun_VersionOverride(t *testing.T) {
	p := goodDataset()
	r := newRunner(t, prism.RunConfig{DatasetPath: ".", SchemaVersion: "1.1.0"}, p)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", report.SchemaVersion)
}

// TestRun_MissingDescription is an error finding, not a fatal condition.
func TestRun_MissingDescription(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.edf", "")
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.json",
		`{"SamplingFrequency": 256, "StartTime": 0, "Columns": ["c"]}`)

	r := newRunner(t, prism.RunConfig{DatasetPath: "."}, p)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, prism.VerdictFail, report.Verdict())
	assert.Equal(t, 1, codes(report.Findings())[prism.CodeMissingDatasetDescription])
}

// TestRun_FailingDataset: per-file findings accumulate and force FAIL.
func TestRun_FailingDataset(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("dataset_description.json", `{"PrismVersion": "1.0.0"}`)
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.edf", "") // no sidecar

	r := newRunner(t, prism.RunConfig{DatasetPath: "."}, p)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, prism.VerdictFail, report.Verdict())
	assert.Equal(t, 1, codes(report.Findings())[prism.CodeMissingRequiredSidecar])
}

// TestRun_MisplacedRecording: a physio recording filed under beh/ must
// fail the run even when its sidecar is fully valid.
func TestRun_MisplacedRecording(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("dataset_description.json", `{"PrismVersion": "1.0.0"}`)
	p.AddFile("sub-01/beh/sub-01_task-rest_physio.edf", "")
	p.AddFile("sub-01/beh/sub-01_task-rest_physio.json",
		`{"SamplingFrequency": 256, "StartTime": 0, "Columns": ["cardiac"]}`)

	r := newRunner(t, prism.RunConfig{DatasetPath: "."}, p)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, prism.VerdictFail, report.Verdict())
	assert.Equal(t, 1, codes(report.Findings())[prism.CodeMisplacedDatatype])
}

// TestRun_LibraryConflict: the cross-file barrier sees all survey
// sidecars and reports divergent item redefinitions.
func TestRun_LibraryConflict(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("dataset_description.json", `{"PrismVersion": "1.0.0"}`)
	p.AddFile("sub-01/beh/sub-01_task-ads_beh.tsv", "")
	p.AddFile("sub-01/beh/sub-01_task-ads_beh.json", `{
		"TaskName": "ads",
		"age": {"DataType": "number", "Units": "years"}
	}`)
	p.AddFile("sub-01/beh/sub-01_task-mood_beh.tsv", "")
	p.AddFile("sub-01/beh/sub-01_task-mood_beh.json", `{
		"TaskName": "mood",
		"age": {"DataType": "categorical", "Levels": {"1": "young", "2": "old"}}
	}`)

	r := newRunner(t, prism.RunConfig{DatasetPath: "."}, p)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	conflicts := codes(report.Findings())[prism.CodeVariableConflict]
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, prism.VerdictFail, report.Verdict())
}

// TestRun_SharedSidecarNotDoubleCounted: an inherited sidecar claimed by
// several recordings enters the library index once.
func TestRun_SharedSidecarNotDoubleCounted(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("dataset_description.json", `{"PrismVersion": "1.0.0"}`)
	p.AddFile("task-ads_beh.json", `{
		"TaskName": "ads",
		"age": {"DataType": "number"}
	}`)
	p.AddFile("sub-01/beh/sub-01_task-ads_beh.tsv", "")
	p.AddFile("sub-02/beh/sub-02_task-ads_beh.tsv", "")

	r := newRunner(t, prism.RunConfig{DatasetPath: "."}, p)
	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, codes(report.Findings())[prism.CodeVariableConflict])
}

// TestRun_StatsWarnings: the majority rule surfaces through the full run.
func TestRun_StatsWarnings(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("dataset_description.json", `{"PrismVersion": "1.0.0"}`)
	sidecar := `{"SamplingFrequency": 256, "StartTime": 0, "Columns": ["c"]}`
	for _, sub := range []string{"01", "02", "03"} {
		p.AddFile("sub-"+sub+"/physio/sub-"+sub+"_ses-1_task-rest_physio.edf", "")
		p.AddFile("sub-"+sub+"/physio/sub-"+sub+"_ses-1_task-rest_physio.json", sidecar)
	}
	p.AddFile("sub-01/physio/sub-01_ses-2_task-rest_physio.edf", "")
	p.AddFile("sub-01/physio/sub-01_ses-2_task-rest_physio.json", sidecar)
	p.AddFile("sub-02/physio/sub-02_ses-2_task-rest_physio.edf", "")
	p.AddFile("sub-02/physio/sub-02_ses-2_task-rest_physio.json", sidecar)

	r := newRunner(t, prism.RunConfig{DatasetPath: "."}, p)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	got := codes(report.Findings())
	assert.Equal(t, 1, got[prism.CodeSessionInconsistent])
	assert.Equal(t, prism.VerdictPass, report.Verdict())
}

// TestRun_EmptyDataset: no subjects at all is an error.
func TestRun_EmptyDataset(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("dataset_description.json", `{"PrismVersion": "1.0.0"}`)

	r := newRunner(t, prism.RunConfig{DatasetPath: "."}, p)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, codes(report.Findings())[prism.CodeNoSubjectsFound])
	assert.Equal(t, prism.VerdictFail, report.Verdict())
}

// TestRun_Cancellation: a cancelled context aborts the wave but leaves a
// valid report.
func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, prism.RunConfig{DatasetPath: "."}, goodDataset())
	report, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	report.Summarize() // must not panic on a partial report
}

// TestNew_InvalidConfig: empty dataset path is rejected up front.
func TestNew_InvalidConfig(t *testing.T) {
	_, err := NewWithProvider(prism.RunConfig{}, nil, filesystem.NewMemoryProvider("/data"))
	require.ErrorIs(t, err, prism.ErrInvalidConfig)
}
