// Package stats tracks dataset composition across a validation run and
// derives the cross-subject consistency warnings: sessions or tasks that
// most subjects have but some lack.
package stats

import (
	"fmt"
	"sort"

	"github.com/prism-data/prism/pkg/prism"
)

// Tracker accumulates per-subject observations. It is not safe for
// concurrent use; the runner feeds it from the collector goroutine only.
type Tracker struct {
	subjects map[string]*subjectStats
	files    int
}

type subjectStats struct {
	sessions map[string]struct{}
	tasks    map[string]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{subjects: make(map[string]*subjectStats)}
}

// Observe records one parsed data file.
func (t *Tracker) Observe(es prism.EntitySet) {
	t.files++

	sub, ok := es.Get("sub")
	if !ok {
		return
	}
	s, exists := t.subjects[sub]
	if !exists {
		s = &subjectStats{
			sessions: make(map[string]struct{}),
			tasks:    make(map[string]struct{}),
		}
		t.subjects[sub] = s
	}

	if ses, ok := es.Get("ses"); ok {
		s.sessions[ses] = struct{}{}
	}
	if task, ok := es.Get("task"); ok {
		s.tasks[task] = struct{}{}
	}
}

// Summary is the aggregate view rendered at the end of a report.
type Summary struct {
	Subjects int
	Sessions int
	Tasks    int
	Files    int
}

// Summarize returns distinct counts over everything observed so far.
func (t *Tracker) Summarize() Summary {
	sessions := make(map[string]struct{})
	tasks := make(map[string]struct{})
	for _, s := range t.subjects {
		for ses := range s.sessions {
			sessions[ses] = struct{}{}
		}
		for task := range s.tasks {
			tasks[task] = struct{}{}
		}
	}
	return Summary{
		Subjects: len(t.subjects),
		Sessions: len(sessions),
		Tasks:    len(tasks),
		Files:    t.files,
	}
}

// Findings derives the consistency findings. A session or task held by a
// strict majority of subjects is expected of every subject; each subject
// lacking it gets one warning. Zero observed subjects is an error.
func (t *Tracker) Findings(schemaVersion string) []prism.Finding {
	if len(t.subjects) == 0 {
		return []prism.Finding{{
			Code:          prism.CodeNoSubjectsFound,
			Severity:      prism.SeverityError,
			Message:       "dataset contains no subject data files",
			SchemaVersion: schemaVersion,
		}}
	}

	var findings []prism.Finding
	findings = append(findings, t.majorityFindings(
		prism.CodeSessionInconsistent, "session",
		func(s *subjectStats) map[string]struct{} { return s.sessions },
		schemaVersion)...)
	findings = append(findings, t.majorityFindings(
		prism.CodeTaskInconsistent, "task",
		func(s *subjectStats) map[string]struct{} { return s.tasks },
		schemaVersion)...)
	return findings
}

func (t *Tracker) majorityFindings(code prism.Code, noun string, pick func(*subjectStats) map[string]struct{}, schemaVersion string) []prism.Finding {
	holders := make(map[string][]string)
	for sub, s := range t.subjects {
		for value := range pick(s) {
			holders[value] = append(holders[value], sub)
		}
	}

	values := make([]string, 0, len(holders))
	for value := range holders {
		values = append(values, value)
	}
	sort.Strings(values)

	subjects := make([]string, 0, len(t.subjects))
	for sub := range t.subjects {
		subjects = append(subjects, sub)
	}
	sort.Strings(subjects)

	var findings []prism.Finding
	for _, value := range values {
		if len(holders[value])*2 <= len(t.subjects) {
			continue
		}
		holding := make(map[string]struct{}, len(holders[value]))
		for _, sub := range holders[value] {
			holding[sub] = struct{}{}
		}
		for _, sub := range subjects {
			if _, has := holding[sub]; has {
				continue
			}
			findings = append(findings, prism.Finding{
				Code:          code,
				Severity:      prism.SeverityWarning,
				Path:          "sub-" + sub,
				Field:         value,
				Message:       fmt.Sprintf("subject '%s' is missing %s '%s', present for %d of %d subjects", sub, noun, value, len(holders[value]), len(t.subjects)),
				SchemaVersion: schemaVersion,
			})
		}
	}
	return findings
}
