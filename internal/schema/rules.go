// Package schema loads and indexes versioned rule definitions and
// resolves the effective schema for a dataset.
//
// Rule definitions are layered: a base structural standard plus a
// domain extension. The extension merges over the base at registry build
// time, so lookups at validation time hit flat, pre-merged rules.
package schema

import (
	"fmt"
	"sort"
)

// FieldType names the expected JSON type of a sidecar field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
)

// FieldRule constrains a single sidecar field.
type FieldRule struct {
	Name     string    `yaml:"name"`
	Type     FieldType `yaml:"type"`
	Required bool      `yaml:"required"`

	// Enum restricts a string field to a closed set of values.
	Enum []string `yaml:"enum,omitempty"`

	// Minimum/Maximum bound numeric fields (inclusive).
	Minimum *float64 `yaml:"minimum,omitempty"`
	Maximum *float64 `yaml:"maximum,omitempty"`
}

// EntityRules lists which entity keys a suffix requires and which it
// merely allows.
type EntityRules struct {
	Required []string `yaml:"required"`
	Optional []string `yaml:"optional"`
}

// SidecarRules describe the JSON companion of a data file.
type SidecarRules struct {
	Required bool        `yaml:"required"`
	Fields   []FieldRule `yaml:"fields"`
}

// RuleDefinition describes, for one suffix, the allowed entities,
// extensions, datatype directories and sidecar constraints. After the
// registry merges base and extension layers, rule definitions are
// read-only for the process lifetime.
type RuleDefinition struct {
	Suffix       string       `yaml:"suffix"`
	Modality     string       `yaml:"modality"`
	DatatypeDirs []string     `yaml:"datatype_dirs"`
	Extensions   []string     `yaml:"extensions"`
	Entities     EntityRules  `yaml:"entities"`
	Sidecar      SidecarRules `yaml:"sidecar"`
}

// RequiresEntity reports whether the entity key is required for this
// suffix.
func (r *RuleDefinition) RequiresEntity(key string) bool {
	for _, k := range r.Entities.Required {
		if k == key {
			return true
		}
	}
	return false
}

// AllowsEntity reports whether the entity key is required or optional for
// this suffix.
func (r *RuleDefinition) AllowsEntity(key string) bool {
	if r.RequiresEntity(key) {
		return true
	}
	for _, k := range r.Entities.Optional {
		if k == key {
			return true
		}
	}
	return false
}

// AllowsExtension reports whether the (lowercased) extension is valid for
// this suffix. An empty extension list allows anything.
func (r *RuleDefinition) AllowsExtension(ext string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	for _, e := range r.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// FieldByName returns the field rule with the given name, if declared.
func (r *RuleDefinition) FieldByName(name string) (FieldRule, bool) {
	for _, f := range r.Sidecar.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldRule{}, false
}

// ruleDocument is the YAML shape of one versioned rule file: the closed
// entity vocabulary plus the base layer and the extension layer.
type ruleDocument struct {
	Version   string           `yaml:"version"`
	Entities  []string         `yaml:"entities"`
	Base      []RuleDefinition `yaml:"base"`
	Extension []RuleDefinition `yaml:"extension"`
}

func (d *ruleDocument) validate() error {
	if d.Version == "" {
		return fmt.Errorf("rule document missing version")
	}
	if len(d.Base) == 0 {
		return fmt.Errorf("rule document %s has no base rules", d.Version)
	}
	seen := map[string]bool{}
	for _, r := range d.Base {
		if r.Suffix == "" {
			return fmt.Errorf("rule document %s: base rule without suffix", d.Version)
		}
		if seen[r.Suffix] {
			return fmt.Errorf("rule document %s: duplicate base rule for suffix %s", d.Version, r.Suffix)
		}
		seen[r.Suffix] = true
	}
	return nil
}

// merge overlays the extension layer onto a copy of the base layer.
// A field marked required by the extension overrides the base's optional
// marking; fields absent from the extension fall back to base rules
// unchanged. Suffixes only present in the extension are added wholesale.
func (d *ruleDocument) merge() map[string]*RuleDefinition {
	merged := make(map[string]*RuleDefinition, len(d.Base))
	for i := range d.Base {
		r := d.Base[i] // copy
		merged[r.Suffix] = &r
	}

	for i := range d.Extension {
		ext := d.Extension[i]
		base, ok := merged[ext.Suffix]
		if !ok {
			r := ext // copy
			merged[ext.Suffix] = &r
			continue
		}
		merged[ext.Suffix] = mergeRule(base, &ext)
	}

	return merged
}

func mergeRule(base, ext *RuleDefinition) *RuleDefinition {
	out := *base

	if ext.Modality != "" {
		out.Modality = ext.Modality
	}
	if len(ext.DatatypeDirs) > 0 {
		out.DatatypeDirs = ext.DatatypeDirs
	}
	if len(ext.Extensions) > 0 {
		out.Extensions = ext.Extensions
	}

	// Entity layering: extension-required keys win over base-optional.
	if len(ext.Entities.Required) > 0 || len(ext.Entities.Optional) > 0 {
		required := append([]string{}, base.Entities.Required...)
		for _, k := range ext.Entities.Required {
			if !contains(required, k) {
				required = append(required, k)
			}
		}
		var optional []string
		for _, k := range append(append([]string{}, base.Entities.Optional...), ext.Entities.Optional...) {
			if !contains(required, k) && !contains(optional, k) {
				optional = append(optional, k)
			}
		}
		out.Entities = EntityRules{Required: required, Optional: optional}
	}

	// Sidecar layering: requiredness is sticky, fields merge by name with
	// the extension definition replacing the base one.
	out.Sidecar.Required = base.Sidecar.Required || ext.Sidecar.Required
	fields := make([]FieldRule, 0, len(base.Sidecar.Fields)+len(ext.Sidecar.Fields))
	replaced := map[string]FieldRule{}
	for _, f := range ext.Sidecar.Fields {
		replaced[f.Name] = f
	}
	for _, f := range base.Sidecar.Fields {
		if r, ok := replaced[f.Name]; ok {
			fields = append(fields, r)
			delete(replaced, f.Name)
		} else {
			fields = append(fields, f)
		}
	}
	for _, f := range ext.Sidecar.Fields {
		if _, stillNew := replaced[f.Name]; stillNew {
			fields = append(fields, f)
		}
	}
	out.Sidecar.Fields = fields

	return &out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// EffectiveSchema is the flat, pre-merged rule set for one resolved
// version. It is immutable after registry construction and safe for
// shared concurrent reads.
type EffectiveSchema struct {
	Version  string
	entities map[string]bool
	rules    map[string]*RuleDefinition
}

// Lookup returns the rule definition for a suffix, or false when the
// schema has no rules for it (NotApplicable).
func (s *EffectiveSchema) Lookup(suffix string) (*RuleDefinition, bool) {
	r, ok := s.rules[suffix]
	return r, ok
}

// KnownEntity reports whether the key belongs to the schema version's
// closed entity vocabulary.
func (s *EffectiveSchema) KnownEntity(key string) bool {
	return s.entities[key]
}

// KnownDatatype reports whether any rule claims the datatype directory.
func (s *EffectiveSchema) KnownDatatype(dir string) bool {
	for _, r := range s.rules {
		for _, d := range r.DatatypeDirs {
			if d == dir {
				return true
			}
		}
	}
	return false
}

// Suffixes returns the suffixes with rules, sorted.
func (s *EffectiveSchema) Suffixes() []string {
	out := make([]string, 0, len(s.rules))
	for suffix := range s.rules {
		out = append(out, suffix)
	}
	sort.Strings(out)
	return out
}
