// Package entity decomposes dataset file names into ordered entity sets.
//
// Parsing is purely syntactic. The parser never consults a schema: unknown
// entity keys and missing required entities are rule-engine concerns, not
// parse failures. The same path always yields the same entity set; the
// only normalization applied is lowercasing of the extension.
package entity

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/prism-data/prism/pkg/prism"
)

// canonicalOrder fixes the relative order of the well-known entity keys
// within a file name. Keys absent from this list carry no order
// constraint.
var canonicalOrder = []string{"sub", "ses", "task", "acq", "run", "recording"}

// CanonicalOrder returns the fixed ordering of well-known entity keys.
func CanonicalOrder() []string {
	out := make([]string, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}

func canonicalIndex(key string) int {
	for i, k := range canonicalOrder {
		if k == key {
			return i
		}
	}
	return -1
}

// Parse decomposes the file name of a dataset-relative path into an
// entity set. Malformed entity syntax (unmatched key-value delimiter,
// duplicate key, empty key or value, well-known entities out of canonical
// order, missing suffix) produces a *ParseError.
func Parse(relPath string) (prism.EntitySet, error) {
	base := path.Base(filepath.ToSlash(relPath))
	if base == "." || base == "" {
		return prism.EntitySet{}, &ParseError{
			Path:    relPath,
			Message: "empty file name",
		}
	}

	parts := strings.Split(base, "_")
	last := parts[len(parts)-1]

	suffix, extension, err := splitSuffix(relPath, last)
	if err != nil {
		return prism.EntitySet{}, err
	}

	entities := make([]prism.Entity, 0, len(parts)-1)
	seen := make(map[string]bool, len(parts)-1)
	lastCanonical := -1

	for _, part := range parts[:len(parts)-1] {
		dash := strings.Index(part, "-")
		if dash == -1 {
			return prism.EntitySet{}, &ParseError{
				Path:    relPath,
				Message: "entity " + quote(part) + " has no key-value delimiter",
				Hint:    "entities are written key-value and joined with underscores, e.g. sub-01_ses-1_task-rest_physio.edf",
			}
		}

		key := part[:dash]
		value := part[dash+1:]
		if key == "" {
			return prism.EntitySet{}, &ParseError{
				Path:    relPath,
				Message: "entity " + quote(part) + " has an empty key",
			}
		}
		if value == "" {
			return prism.EntitySet{}, &ParseError{
				Path:    relPath,
				Message: "entity " + quote(key) + " has an empty value",
			}
		}
		if !isAlnum(key) {
			return prism.EntitySet{}, &ParseError{
				Path:    relPath,
				Message: "entity key " + quote(key) + " contains non-alphanumeric characters",
			}
		}

		if seen[key] {
			return prism.EntitySet{}, &ParseError{
				Path:    relPath,
				Message: "duplicate entity key " + quote(key),
				Hint:    "each entity key may appear at most once in a file name",
			}
		}
		seen[key] = true

		if idx := canonicalIndex(key); idx != -1 {
			if idx < lastCanonical {
				return prism.EntitySet{}, &ParseError{
					Path:    relPath,
					Message: "entity " + quote(key) + " out of canonical order",
					Hint:    "well-known entities must appear as " + strings.Join(canonicalOrder, ", "),
				}
			}
			lastCanonical = idx
		}

		entities = append(entities, prism.Entity{Key: key, Value: value})
	}

	return prism.EntitySet{
		Entities:  entities,
		Suffix:    suffix,
		Extension: extension,
	}, nil
}

// splitSuffix separates "physio.edf" into suffix "physio" and extension
// ".edf". Multi-part extensions like ".tsv.gz" are kept whole. The
// extension is lowercased; nothing else is normalized.
func splitSuffix(relPath, last string) (string, string, error) {
	dot := strings.Index(last, ".")
	if dot == 0 {
		return "", "", &ParseError{
			Path:    relPath,
			Message: "file name has an extension but no suffix",
			Hint:    "the final underscore-separated segment names the file role, e.g. physio, beh, events",
		}
	}
	if dot == -1 {
		if last == "" {
			return "", "", &ParseError{
				Path:    relPath,
				Message: "file name has no suffix",
			}
		}
		return last, "", nil
	}
	return last[:dot], strings.ToLower(last[dot:]), nil
}

func isAlnum(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func quote(s string) string {
	return "'" + s + "'"
}

// SidecarName returns the canonical name of the JSON companion for an
// entity set: same entities and suffix, .json extension.
func SidecarName(es prism.EntitySet) string {
	stripped := es
	stripped.Extension = prism.SidecarExtension
	return stripped.Name()
}
