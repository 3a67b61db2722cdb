package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prism-data/prism/internal/entity"
	"github.com/prism-data/prism/pkg/prism"
)

func observe(t *testing.T, tr *Tracker, names ...string) {
	t.Helper()
	for _, name := range names {
		es, err := entity.Parse(name)
		require.NoError(t, err)
		tr.Observe(es)
	}
}

// TestTracker_NoSubjects: an empty run yields the NoSubjectsFound error.
func TestTracker_NoSubjects(t *testing.T) {
	tr := NewTracker()
	findings := tr.Findings("1.0.0")
	require.Len(t, findings, 1)
	assert.Equal(t, prism.CodeNoSubjectsFound, findings[0].Code)
	assert.Equal(t, prism.SeverityError, findings[0].Severity)
}

// TestTracker_ConsistentDataset: every subject has every session and
// task, no findings.
func TestTracker_ConsistentDataset(t *testing.T) {
	tr := NewTracker()
	observe(t, tr,
		"sub-01_ses-1_task-rest_physio.edf",
		"sub-01_ses-2_task-rest_physio.edf",
		"sub-02_ses-1_task-rest_physio.edf",
		"sub-02_ses-2_task-rest_physio.edf",
	)

	assert.Empty(t, tr.Findings("1.0.0"))

	s := tr.Summarize()
	assert.Equal(t, Summary{Subjects: 2, Sessions: 2, Tasks: 1, Files: 4}, s)
}

// TestTracker_MissingMajoritySession: a session held by two of three
// subjects... is not a majority miss; held by three of four it is.
func TestTracker_MissingMajoritySession(t *testing.T) {
	tr := NewTracker()
	observe(t, tr,
		"sub-01_ses-1_task-rest_physio.edf",
		"sub-01_ses-2_task-rest_physio.edf",
		"sub-02_ses-1_task-rest_physio.edf",
		"sub-02_ses-2_task-rest_physio.edf",
		"sub-03_ses-1_task-rest_physio.edf",
		"sub-03_ses-2_task-rest_physio.edf",
		"sub-04_ses-1_task-rest_physio.edf",
	)

	findings := tr.Findings("1.0.0")
	require.Len(t, findings, 1)
	assert.Equal(t, prism.CodeSessionInconsistent, findings[0].Code)
	assert.Equal(t, prism.SeverityWarning, findings[0].Severity)
	assert.Equal(t, "sub-04", findings[0].Path)
	assert.Equal(t, "2", findings[0].Field)
}

// TestTracker_ExactHalfIsNotMajority: one of two subjects having a task
// does not make it expected of the other.
func TestTracker_ExactHalfIsNotMajority(t *testing.T) {
	tr := NewTracker()
	observe(t, tr,
		"sub-01_task-rest_physio.edf",
		"sub-02_task-stress_physio.edf",
	)

	assert.Empty(t, tr.Findings("1.0.0"))
}

// TestTracker_TaskInconsistent: tasks follow the same majority rule as
// sessions.
func TestTracker_TaskInconsistent(t *testing.T) {
	tr := NewTracker()
	observe(t, tr,
		"sub-01_task-rest_physio.edf",
		"sub-02_task-rest_physio.edf",
		"sub-03_task-stress_physio.edf",
	)

	findings := tr.Findings("1.0.0")
	require.Len(t, findings, 1)
	assert.Equal(t, prism.CodeTaskInconsistent, findings[0].Code)
	assert.Equal(t, "sub-03", findings[0].Path)
	assert.Equal(t, "rest", findings[0].Field)
}

// TestTracker_Deterministic: finding order is stable across calls.
func TestTracker_Deterministic(t *testing.T) {
	tr := NewTracker()
	observe(t, tr,
		"sub-01_ses-1_task-a_beh.tsv",
		"sub-01_ses-1_task-b_beh.tsv",
		"sub-02_ses-1_task-a_beh.tsv",
		"sub-02_ses-1_task-b_beh.tsv",
		"sub-03_ses-2_task-c_beh.tsv",
	)

	first := tr.Findings("1.0.0")
	second := tr.Findings("1.0.0")
	assert.Equal(t, first, second)
}
