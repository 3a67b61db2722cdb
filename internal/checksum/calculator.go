// Package checksum computes content digests for sidecar documents.
//
// Two digests exist per document: a raw digest over the exact bytes, and a
// normalized digest over a canonical rendering of the decoded JSON value.
// The normalized digest is what "byte-for-byte equivalent" means to the
// library checker: formatting, key order and number spelling do not count
// as divergence.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
)

// Calculator is an interface for computing document checksums.
// This abstraction allows for different checksum strategies and algorithms.
type Calculator interface {
	// CalculateNormalized computes a checksum of the canonical rendering
	// of the content. Content that is not valid JSON falls back to a
	// whitespace-collapsed digest of the raw text.
	CalculateNormalized(content []byte) string

	// CalculateValue computes the normalized checksum of an already
	// decoded JSON value.
	CalculateValue(v interface{}) string
}

// SHA256 implements checksum calculation using SHA-256 over canonical
// JSON: object keys sorted, no insignificant whitespace, numbers in
// shortest float form.
//
// SHA256 is a zero-size type and is safe for concurrent use by multiple
// goroutines. Using value semantics eliminates heap allocations.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content. It backs the non-JSON
// fallback of CalculateNormalized and is not part of Calculator.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateNormalized computes SHA-256 of canonicalized content.
func (c SHA256) CalculateNormalized(content []byte) string {
	var v interface{}
	if err := json.Unmarshal(content, &v); err != nil {
		return c.CalculateRaw([]byte(collapseWhitespace(string(content))))
	}
	return c.CalculateValue(v)
}

// CalculateValue computes SHA-256 of the canonical rendering of a decoded
// JSON value.
func (c SHA256) CalculateValue(v interface{}) string {
	var b strings.Builder
	canonicalize(&b, v)
	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

// canonicalize writes a deterministic rendering of a decoded JSON value:
// objects with sorted keys, arrays in order, strings quoted, numbers via
// strconv shortest form.
func canonicalize(b *strings.Builder, v interface{}) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			canonicalize(b, val[k])
		}
		b.WriteByte('}')
	case []interface{}:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			canonicalize(b, item)
		}
		b.WriteByte(']')
	case string:
		b.WriteString(strconv.Quote(val))
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case json.Number:
		if f, err := val.Float64(); err == nil {
			b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		} else {
			b.WriteString(val.String())
		}
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case nil:
		b.WriteString("null")
	}
}

// collapseWhitespace reduces runs of whitespace to single spaces so the
// fallback digest for non-JSON content ignores reformatting.
func collapseWhitespace(content string) string {
	var b strings.Builder
	b.Grow(len(content))

	lastWasSpace := false
	for _, r := range content {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			b.WriteRune(r)
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}
