package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-data/prism/internal/files/filesystem"
	"github.com/prism-data/prism/pkg/prism"
)

func byCode(findings []prism.Finding, code prism.Code) []prism.Finding {
	var out []prism.Finding
	for _, f := range findings {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

func fileByPath(t *testing.T, files []DataFile, rel string) DataFile {
	t.Helper()
	for _, f := range files {
		if f.RelPath == rel {
			return f
		}
	}
	t.Fatalf("no data file %s in %v", rel, files)
	return DataFile{}
}

// TestScan_BasicDataset: description, data files and sibling sidecars
// are discovered and decoded.
func TestScan_BasicDataset(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("dataset_description.json", `{"Name": "demo", "PrismVersion": "1.0.0"}`)
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.edf", "")
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.json", `{"SamplingFrequency": 256}`)

	result, err := NewWithProvider(p).Scan(".")
	require.NoError(t, err)
	assert.Empty(t, result.Findings)

	require.NotNil(t, result.Description)
	assert.Equal(t, "demo", result.Description["Name"])

	require.Len(t, result.Files, 1)
	f := result.Files[0]
	assert.Equal(t, "sub-01/physio/sub-01_task-rest_physio.edf", f.RelPath)
	assert.Equal(t, "physio", f.Datatype)
	assert.True(t, f.HasSidecar())
	assert.Equal(t, "sub-01/physio/sub-01_task-rest_physio.json", f.SidecarPath)
	require.NotNil(t, f.Sidecar)
	assert.Equal(t, float64(256), f.Sidecar["SamplingFrequency"])
}

// TestScan_InheritedSidecar: a dataset-root task sidecar covers every
// matching recording.
func TestScan_InheritedSidecar(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("dataset_description.json", `{"Name": "demo"}`)
	p.AddFile("task-rest_physio.json", `{"SamplingFrequency": 256}`)
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.edf", "")
	p.AddFile("sub-02/physio/sub-02_task-rest_physio.edf", "")

	result, err := NewWithProvider(p).Scan(".")
	require.NoError(t, err)
	assert.Empty(t, byCode(result.Findings, prism.CodeOrphanedSidecar))

	for _, rel := range []string{
		"sub-01/physio/sub-01_task-rest_physio.edf",
		"sub-02/physio/sub-02_task-rest_physio.edf",
	} {
		f := fileByPath(t, result.Files, rel)
		assert.Equal(t, "task-rest_physio.json", f.SidecarPath)
		assert.NotNil(t, f.Sidecar)
	}
}

// TestScan_SiblingWinsOverInherited: an exact sibling companion takes
// precedence over the dataset-root one.
func TestScan_SiblingWinsOverInherited(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("task-rest_physio.json", `{"SamplingFrequency": 100}`)
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.edf", "")
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.json", `{"SamplingFrequency": 256}`)

	result, err := NewWithProvider(p).Scan(".")
	require.NoError(t, err)

	f := fileByPath(t, result.Files, "sub-01/physio/sub-01_task-rest_physio.edf")
	assert.Equal(t, "sub-01/physio/sub-01_task-rest_physio.json", f.SidecarPath)
	assert.Equal(t, float64(256), f.Sidecar["SamplingFrequency"])

	// The unclaimed root sidecar is an orphan.
	orphans := byCode(result.Findings, prism.CodeOrphanedSidecar)
	require.Len(t, orphans, 1)
	assert.Equal(t, "task-rest_physio.json", orphans[0].Path)
}

// TestScan_ParseFailure: a malformed file name is reported and scanning
// continues with the rest of the tree.
func TestScan_ParseFailure(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("sub-01/beh/task-ads_sub-01_beh.tsv", "") // out of canonical order
	p.AddFile("sub-02/beh/sub-02_task-ads_beh.tsv", "")

	result, err := NewWithProvider(p).Scan(".")
	require.NoError(t, err)

	failures := byCode(result.Findings, prism.CodeParseFailure)
	require.Len(t, failures, 1)
	assert.Equal(t, prism.SeverityError, failures[0].Severity)
	assert.Equal(t, "sub-01/beh/task-ads_sub-01_beh.tsv", failures[0].Path)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "sub-02/beh/sub-02_task-ads_beh.tsv", result.Files[0].RelPath)
}

// TestScan_OrphanedSidecar: a companion without a data file is flagged.
func TestScan_OrphanedSidecar(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.json", `{}`)

	result, err := NewWithProvider(p).Scan(".")
	require.NoError(t, err)

	orphans := byCode(result.Findings, prism.CodeOrphanedSidecar)
	require.Len(t, orphans, 1)
	assert.Equal(t, "sub-01/physio/sub-01_task-rest_physio.json", orphans[0].Path)
	assert.Equal(t, prism.SeverityWarning, orphans[0].Severity)
}

// TestScan_InvalidSidecarJSON: the pairing still happens, the decode
// failure becomes a finding, and the engine later sees nil content.
func TestScan_InvalidSidecarJSON(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.edf", "")
	p.AddFile("sub-01/physio/sub-01_task-rest_physio.json", `{broken`)

	result, err := NewWithProvider(p).Scan(".")
	require.NoError(t, err)

	invalid := byCode(result.Findings, prism.CodeInvalidJSON)
	require.Len(t, invalid, 1)

	f := fileByPath(t, result.Files, "sub-01/physio/sub-01_task-rest_physio.edf")
	assert.True(t, f.HasSidecar())
	assert.Nil(t, f.Sidecar)
}

// TestScan_EmptyDirectory warns for directories with no files.
func TestScan_EmptyDirectory(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("sub-01/beh/sub-01_task-ads_beh.tsv", "")
	p.AddDir("sub-02/physio")

	result, err := NewWithProvider(p).Scan(".")
	require.NoError(t, err)

	empty := byCode(result.Findings, prism.CodeEmptyDirectory)
	require.Len(t, empty, 1)
	assert.Equal(t, "sub-02/physio", empty[0].Path)
}

// TestScan_SystemFilesIgnored: desktop junk is skipped outright and a
// directory holding only junk still counts as empty.
func TestScan_SystemFilesIgnored(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("sub-01/beh/sub-01_task-ads_beh.tsv", "")
	p.AddFile("sub-02/physio/.DS_Store", "junk")
	p.AddFile("Thumbs.db", "junk")

	result, err := NewWithProvider(p).Scan(".")
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	empty := byCode(result.Findings, prism.CodeEmptyDirectory)
	require.Len(t, empty, 1)
	assert.Equal(t, "sub-02/physio", empty[0].Path)
}

// TestScan_IgnorePatterns: configured patterns and the dataset ignore
// file both prune the walk, directories included.
func TestScan_IgnorePatterns(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile(".prismignore", "derivatives\n# comment\n*.bak\n")
	p.AddFile("sub-01/beh/sub-01_task-ads_beh.tsv", "")
	p.AddFile("sub-01/beh/sub-01_task-ads_beh.tsv.bak", "")
	p.AddFile("derivatives/sub-01/odd name.txt", "")
	p.AddFile("scratch/sub-01_task-x_beh.tsv", "")

	s := NewWithProvider(p)
	s.Ignore = []string{"scratch/**"}

	result, err := s.Scan(".")
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "sub-01/beh/sub-01_task-ads_beh.tsv", result.Files[0].RelPath)
	assert.Empty(t, byCode(result.Findings, prism.CodeParseFailure))
}

// TestScan_MissingDescription: the scanner leaves Description nil; the
// run orchestrator decides what that means.
func TestScan_MissingDescription(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")
	p.AddFile("sub-01/beh/sub-01_task-ads_beh.tsv", "")

	result, err := NewWithProvider(p).Scan(".")
	require.NoError(t, err)
	assert.Nil(t, result.Description)
}

// TestScan_OpenFailure: an unopenable root is the one fatal scan error.
func TestScan_OpenFailure(t *testing.T) {
	p := filesystem.NewMemoryProvider("/data")

	_, err := NewWithProvider(p).Scan("nope")
	require.Error(t, err)
}
