package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/prism-data/prism/pkg/prism"
)

//go:embed rules/*.yaml
var builtinRules embed.FS

// Registry holds the pre-merged effective schemas for all known versions.
// It is built once at startup and treated as immutable afterwards; no
// locking is needed since no writer exists after construction.
type Registry struct {
	schemas  map[string]*EffectiveSchema
	versions []*semver.Version
}

// NewRegistry builds a registry from the builtin embedded rule set.
func NewRegistry() (*Registry, error) {
	r := &Registry{schemas: map[string]*EffectiveSchema{}}
	if err := r.loadFS(builtinRules, "rules"); err != nil {
		return nil, err
	}
	return r, nil
}

// NewRegistryWithOverlay builds a registry from the builtin rules plus
// *.yaml rule documents from dir. An overlay document for a known version
// replaces the builtin one; new versions are added.
func NewRegistryWithOverlay(dir string) (*Registry, error) {
	r, err := NewRegistry()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading schema overlay directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading schema overlay %s: %w", e.Name(), err)
		}
		if err := r.addDocument(data, e.Name()); err != nil {
			return nil, err
		}
	}
	r.reindex()
	return r, nil
}

func (r *Registry) loadFS(fsys embed.FS, root string) error {
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".yaml") {
			return nil
		}
		data, err := fsys.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading builtin rules %s: %w", p, err)
		}
		return r.addDocument(data, p)
	})
	if err != nil {
		return err
	}
	r.reindex()
	return nil
}

func (r *Registry) addDocument(data []byte, name string) error {
	var doc ruleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing rule document %s: %w", name, err)
	}
	if err := doc.validate(); err != nil {
		return fmt.Errorf("invalid rule document %s: %w", name, err)
	}

	v, err := semver.NewVersion(doc.Version)
	if err != nil {
		return fmt.Errorf("rule document %s: bad version %q: %w", name, doc.Version, err)
	}

	entities := make(map[string]bool, len(doc.Entities))
	for _, k := range doc.Entities {
		entities[k] = true
	}

	r.schemas[v.String()] = &EffectiveSchema{
		Version:  v.String(),
		entities: entities,
		rules:    doc.merge(),
	}
	return nil
}

func (r *Registry) reindex() {
	r.versions = r.versions[:0]
	for v := range r.schemas {
		r.versions = append(r.versions, semver.MustParse(v))
	}
	sort.Sort(semver.Collection(r.versions))
}

// Versions returns the known schema versions in ascending order.
func (r *Registry) Versions() []string {
	out := make([]string, len(r.versions))
	for i, v := range r.versions {
		out[i] = v.String()
	}
	return out
}

// Resolve returns the effective schema for a requested version.
//
// Resolution rules:
//   - "stable" or "latest" (or empty) resolve to the highest known version
//   - an exact known version resolves to itself
//   - otherwise the highest known version with the same major that does
//     not exceed the request is chosen (nearest compatible)
//
// Anything else fails with prism.ErrUnsupportedSchemaVersion. There is no
// silent fallback: validating against an unknown target is meaningless.
func (r *Registry) Resolve(requested string) (*EffectiveSchema, error) {
	if len(r.versions) == 0 {
		return nil, fmt.Errorf("registry holds no schemas: %w", prism.ErrUnsupportedSchemaVersion)
	}

	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "", "stable", "latest":
		latest := r.versions[len(r.versions)-1]
		return r.schemas[latest.String()], nil
	}

	want, err := semver.NewVersion(strings.TrimPrefix(requested, "v"))
	if err != nil {
		return nil, fmt.Errorf("schema version %q is not a valid version: %w", requested, prism.ErrUnsupportedSchemaVersion)
	}

	if s, ok := r.schemas[want.String()]; ok {
		return s, nil
	}

	// Nearest compatible: highest known <= requested within the same
	// major.
	for i := len(r.versions) - 1; i >= 0; i-- {
		v := r.versions[i]
		if v.Major() == want.Major() && !v.GreaterThan(want) {
			return r.schemas[v.String()], nil
		}
	}

	return nil, fmt.Errorf("schema version %q not in known set [%s]: %w",
		requested, strings.Join(r.Versions(), ", "), prism.ErrUnsupportedSchemaVersion)
}
