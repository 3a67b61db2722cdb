package prism

import "strings"

// Entity is a single key-value component of a structured file name, such
// as sub-01 or task-rest.
type Entity struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EntitySet is the decomposition of a data file name: an ordered sequence
// of entities plus the suffix (file role, e.g. "physio", "beh") and the
// extension. Entity sets are treated as immutable once parsed; no
// component mutates one after construction.
type EntitySet struct {
	Entities  []Entity `json:"entities"`
	Suffix    string   `json:"suffix"`
	Extension string   `json:"extension"`
}

// Get returns the value for an entity key and whether it is present.
func (e EntitySet) Get(key string) (string, bool) {
	for _, ent := range e.Entities {
		if ent.Key == key {
			return ent.Value, true
		}
	}
	return "", false
}

// Has reports whether the entity key is present.
func (e EntitySet) Has(key string) bool {
	_, ok := e.Get(key)
	return ok
}

// Keys returns the entity keys in their parsed order.
func (e EntitySet) Keys() []string {
	keys := make([]string, len(e.Entities))
	for i, ent := range e.Entities {
		keys[i] = ent.Key
	}
	return keys
}

// Name rebuilds the canonical file name for the entity set:
// key-value pairs joined with underscores, then the suffix and extension.
// Parsing the result yields an equal entity set.
func (e EntitySet) Name() string {
	var b strings.Builder
	for _, ent := range e.Entities {
		b.WriteString(ent.Key)
		b.WriteByte('-')
		b.WriteString(ent.Value)
		b.WriteByte('_')
	}
	b.WriteString(e.Suffix)
	b.WriteString(e.Extension)
	return b.String()
}

// Equal reports whether two entity sets are identical in order, suffix
// and extension.
func (e EntitySet) Equal(other EntitySet) bool {
	if e.Suffix != other.Suffix || e.Extension != other.Extension ||
		len(e.Entities) != len(other.Entities) {
		return false
	}
	for i, ent := range e.Entities {
		if other.Entities[i] != ent {
			return false
		}
	}
	return true
}
