// Package library implements the cross-file consistency check over a
// survey library: every item ID must mean the same thing everywhere it is
// declared.
//
// The check is a single pass over the complete set of collected item
// definitions; it cannot run incrementally because a conflict is only
// decidable once both declarations have been seen. The working index is
// built per run and discarded, never persisted.
package library

import (
	"fmt"
	"sort"

	"github.com/prism-data/prism/internal/checksum"
	"github.com/prism-data/prism/pkg/prism"
)

// SourcedDefinition is one item declaration together with where it came
// from. Checksum digests the comparable subset of the definition: the
// scale, type, units and ranges, but not the Description wording, so two
// files may describe the same item differently without diverging. The
// AliasOf marker is kept out of the digest too; it is compared on its
// own, so an alias never conflicts with its canonical target yet two
// aliases of the same ID naming different targets do conflict.
type SourcedDefinition struct {
	Path       string
	ItemID     string
	Definition map[string]interface{}
	AliasOf    string
	Checksum   string
}

// comparableKeysExcluded lists definition keys that do not participate in
// divergence detection.
var comparableKeysExcluded = []string{"Description", "AliasOf"}

// Collector extracts item definitions from decoded survey sidecars.
type Collector struct {
	calc checksum.Calculator

	// Reserved names top-level keys that are sidecar metadata rather
	// than item definitions (TaskName, Technical, …). Object-valued keys
	// outside this set are collected as items.
	Reserved map[string]struct{}
}

// NewCollector returns a collector using the given checksum calculator.
func NewCollector(calc checksum.Calculator, reserved ...string) *Collector {
	set := make(map[string]struct{}, len(reserved))
	for _, key := range reserved {
		set[key] = struct{}{}
	}
	return &Collector{calc: calc, Reserved: set}
}

// Collect returns the item definitions declared in one sidecar, sorted by
// item ID. Non-object values and reserved keys are skipped.
func (c *Collector) Collect(path string, sidecar map[string]interface{}) []SourcedDefinition {
	var items []SourcedDefinition
	for itemID, raw := range sidecar {
		if _, reserved := c.Reserved[itemID]; reserved {
			continue
		}
		def, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		aliasOf, _ := def["AliasOf"].(string)
		items = append(items, SourcedDefinition{
			Path:       path,
			ItemID:     itemID,
			Definition: def,
			AliasOf:    aliasOf,
			Checksum:   c.calc.CalculateValue(comparableSubset(def)),
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items
}

func comparableSubset(def map[string]interface{}) map[string]interface{} {
	subset := make(map[string]interface{}, len(def))
	for k, v := range def {
		subset[k] = v
	}
	for _, k := range comparableKeysExcluded {
		delete(subset, k)
	}
	return subset
}

// Check runs conflict detection over the complete item set.
//
// Two files declaring the same item ID with identical checksums are fine;
// a differing checksum yields exactly one VariableConflict error naming
// both files. Alias declarations are excluded from conflict with their
// canonical target but still conflict among themselves, where divergence
// means a differing checksum or a differing canonical target. Alias
// targets must resolve to a canonical declaration: a missing target warns
// AliasUnknownTarget, a target that is itself an alias warns
// AliasChainUnsupported (the relation is single-level).
func Check(items []SourcedDefinition, schemaVersion string) []prism.Finding {
	index := make(map[string][]SourcedDefinition)
	for _, item := range items {
		index[item.ItemID] = append(index[item.ItemID], item)
	}

	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var findings []prism.Finding
	emit := func(code prism.Code, sev prism.Severity, path, field, format string, args ...interface{}) {
		findings = append(findings, prism.Finding{
			Code:          code,
			Severity:      sev,
			Path:          path,
			Field:         field,
			Message:       fmt.Sprintf(format, args...),
			SchemaVersion: schemaVersion,
		})
	}

	canonical := func(id string) bool {
		for _, entry := range index[id] {
			if entry.AliasOf == "" {
				return true
			}
		}
		return false
	}

	for _, id := range ids {
		entries := index[id]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

		var canonicals, aliases []SourcedDefinition
		for _, entry := range entries {
			if entry.AliasOf == "" {
				canonicals = append(canonicals, entry)
			} else {
				aliases = append(aliases, entry)
			}
		}

		conflictsWithin(canonicals, emit)
		conflictsWithin(aliases, emit)

		for _, alias := range aliases {
			target, known := index[alias.AliasOf]
			switch {
			case !known:
				emit(prism.CodeAliasUnknownTarget, prism.SeverityWarning, alias.Path, alias.ItemID,
					"item '%s' is an alias of '%s', which is not defined anywhere in the library",
					alias.ItemID, alias.AliasOf)
			case !canonical(alias.AliasOf):
				emit(prism.CodeAliasChainUnsupported, prism.SeverityWarning, alias.Path, alias.ItemID,
					"item '%s' is an alias of '%s', which is itself an alias of '%s'; alias chains are not supported",
					alias.ItemID, alias.AliasOf, target[0].AliasOf)
			}
		}
	}

	return findings
}

// conflictsWithin reports one VariableConflict per entry diverging from
// the first declaration of the group, in path order. Within an alias
// group a differing canonical target is a divergence even when the rest
// of the definition matches.
func conflictsWithin(entries []SourcedDefinition, emit func(prism.Code, prism.Severity, string, string, string, ...interface{})) {
	if len(entries) < 2 {
		return
	}
	baseline := entries[0]
	for _, entry := range entries[1:] {
		if entry.Checksum == baseline.Checksum && entry.AliasOf == baseline.AliasOf {
			continue
		}
		emit(prism.CodeVariableConflict, prism.SeverityError, entry.Path, entry.ItemID,
			"item '%s' is defined differently in %s and %s",
			entry.ItemID, baseline.Path, entry.Path)
	}
}
