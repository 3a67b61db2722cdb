// Package engine evaluates parsed dataset files against the effective
// schema and emits findings.
//
// Evaluation never short-circuits: every applicable check runs even after
// an earlier one fails, so a single file surfaces all its problems in one
// pass. For identical inputs the finding sequence is identical, including
// order.
package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/prism-data/prism/internal/schema"
	"github.com/prism-data/prism/pkg/prism"
)

// File is one scanned data file handed to the engine.
type File struct {
	// Path is the dataset-relative path, Unix forward slashes.
	Path string

	// Entities is the parsed decomposition of the file name.
	Entities prism.EntitySet

	// Datatype is the containing datatype directory ("physio", "beh", …),
	// or "." for dataset-root files.
	Datatype string

	// HasSidecar reports whether a JSON companion was resolved, either as
	// a sibling or an inherited dataset-level sidecar.
	HasSidecar bool

	// SidecarPath is the resolved companion path, empty when none.
	SidecarPath string
}

// Evaluate runs all applicable checks for one file and returns the
// findings, in a stable order:
//
//	(a) required-entity presence
//	(b) unknown-entity detection
//	(c) datatype-directory placement and extension
//	(d) required sidecar presence
//	(e) sidecar field type/shape checks
//	(f) modality-specific semantic checks
//
// A suffix without rules in the schema is not applicable and yields no
// findings. The sidecar argument is the decoded companion document; nil
// means no sidecar content is available (missing or unreadable).
func Evaluate(f File, sidecar map[string]interface{}, es *schema.EffectiveSchema) []prism.Finding {
	rule, ok := es.Lookup(f.Entities.Suffix)
	if !ok {
		return nil
	}

	e := evaluator{
		file:    f,
		rule:    rule,
		version: es.Version,
	}

	e.checkRequiredEntities()
	e.checkUnknownEntities(es)
	e.checkDatatype(es)
	e.checkExtension()
	e.checkSidecarPresence()
	if sidecar != nil {
		e.checkFields(sidecar)
		e.checkModality(sidecar)
	}

	return e.findings
}

type evaluator struct {
	file     File
	rule     *schema.RuleDefinition
	version  string
	findings []prism.Finding
}

func (e *evaluator) emit(code prism.Code, sev prism.Severity, field, format string, args ...interface{}) {
	e.findings = append(e.findings, prism.Finding{
		Code:          code,
		Severity:      sev,
		Path:          e.file.Path,
		Field:         field,
		Message:       fmt.Sprintf(format, args...),
		SchemaVersion: e.version,
	})
}

func (e *evaluator) checkRequiredEntities() {
	for _, key := range e.rule.Entities.Required {
		if !e.file.Entities.Has(key) {
			e.emit(prism.CodeMissingRequiredEntity, prism.SeverityError, key,
				"suffix '%s' requires entity '%s'", e.rule.Suffix, key)
		}
	}
}

func (e *evaluator) checkUnknownEntities(es *schema.EffectiveSchema) {
	for _, ent := range e.file.Entities.Entities {
		if !es.KnownEntity(ent.Key) {
			e.emit(prism.CodeUnknownEntity, prism.SeverityWarning, ent.Key,
				"entity '%s' is not in the schema vocabulary", ent.Key)
			continue
		}
		if !e.rule.AllowsEntity(ent.Key) {
			e.emit(prism.CodeUnknownEntity, prism.SeverityWarning, ent.Key,
				"entity '%s' is not allowed for suffix '%s'", ent.Key, e.rule.Suffix)
		}
	}
}

// checkDatatype validates that the file sits in a directory its suffix
// may live in. Landing in a datatype directory claimed by another rule is
// an error; a directory the schema does not recognize as a datatype at
// all is only a warning, since project layouts vary above the datatype
// level.
func (e *evaluator) checkDatatype(es *schema.EffectiveSchema) {
	if len(e.rule.DatatypeDirs) == 0 || containsString(e.rule.DatatypeDirs, e.file.Datatype) {
		return
	}
	if es.KnownDatatype(e.file.Datatype) {
		e.emit(prism.CodeMisplacedDatatype, prism.SeverityError, "",
			"suffix '%s' files belong under %s, not '%s'",
			e.rule.Suffix, strings.Join(e.rule.DatatypeDirs, " or "), e.file.Datatype)
		return
	}
	e.emit(prism.CodeMisplacedDatatype, prism.SeverityWarning, "",
		"suffix '%s' files belong under %s; '%s' is not a datatype directory the schema knows",
		e.rule.Suffix, strings.Join(e.rule.DatatypeDirs, " or "), e.file.Datatype)
}

func (e *evaluator) checkExtension() {
	// Sidecars themselves are paired with data files, never evaluated as
	// primaries, so the extension here is always a data extension.
	if !e.rule.AllowsExtension(e.file.Entities.Extension) {
		e.emit(prism.CodeUnexpectedExtension, prism.SeverityWarning, "",
			"extension '%s' is not expected for suffix '%s' (allowed: %s)",
			e.file.Entities.Extension, e.rule.Suffix, strings.Join(e.rule.Extensions, ", "))
	}
}

func (e *evaluator) checkSidecarPresence() {
	if e.rule.Sidecar.Required && !e.file.HasSidecar {
		e.emit(prism.CodeMissingRequiredSidecar, prism.SeverityError, "",
			"suffix '%s' requires a JSON sidecar and none was found", e.rule.Suffix)
	}
}

// checkFields validates declared sidecar fields: presence of required
// ones, then type, enum and bound constraints on the present ones.
func (e *evaluator) checkFields(sidecar map[string]interface{}) {
	for _, fr := range e.rule.Sidecar.Fields {
		val, present := sidecar[fr.Name]
		if !present {
			if fr.Required {
				e.emit(prism.CodeMissingRequiredField, prism.SeverityError, fr.Name,
					"sidecar is missing required field '%s'", fr.Name)
			}
			continue
		}

		if !typeMatches(val, fr.Type) {
			e.emit(prism.CodeTypeMismatch, prism.SeverityError, fr.Name,
				"field '%s' must be of type %s, got %s", fr.Name, fr.Type, jsonTypeName(val))
			continue
		}

		if len(fr.Enum) > 0 {
			if s, ok := val.(string); ok && !containsString(fr.Enum, s) {
				e.emit(prism.CodeTypeMismatch, prism.SeverityError, fr.Name,
					"field '%s' must be one of [%s], got %s", fr.Name, strings.Join(fr.Enum, ", "), preview(s))
			}
		}

		if n, ok := toNumber(val); ok {
			if fr.Minimum != nil && n < *fr.Minimum {
				e.emit(prism.CodeTypeMismatch, prism.SeverityError, fr.Name,
					"field '%s' is %v, below minimum %v", fr.Name, n, *fr.Minimum)
			}
			if fr.Maximum != nil && n > *fr.Maximum {
				e.emit(prism.CodeTypeMismatch, prism.SeverityError, fr.Name,
					"field '%s' is %v, above maximum %v", fr.Name, n, *fr.Maximum)
			}
		}
	}

	// Undeclared scalar fields are informational. Object-valued keys in
	// the item modalities are variable definitions handled by
	// checkModality.
	for _, key := range sortedKeys(sidecar) {
		if _, declared := e.rule.FieldByName(key); declared {
			continue
		}
		if e.isItemModality() {
			if _, isObject := sidecar[key].(map[string]interface{}); isObject {
				continue
			}
		}
		e.emit(prism.CodeUnknownField, prism.SeverityInfo, key,
			"field '%s' is not declared by the schema for suffix '%s'", key, e.rule.Suffix)
	}
}

func (e *evaluator) isItemModality() bool {
	return e.rule.Modality == "survey" || e.rule.Modality == "biometrics"
}

// checkModality runs the semantic checks for survey and biometric
// sidecars: every object-valued, undeclared top-level key is a variable
// (item) definition whose scale and ranges must be well formed. The
// checks concern metadata shape only, never the underlying signal data.
func (e *evaluator) checkModality(sidecar map[string]interface{}) {
	if !e.isItemModality() {
		return
	}

	for _, itemID := range sortedKeys(sidecar) {
		if _, declared := e.rule.FieldByName(itemID); declared {
			continue
		}
		def, ok := sidecar[itemID].(map[string]interface{})
		if !ok {
			continue
		}
		e.checkItem(itemID, def)
	}
}

func (e *evaluator) checkItem(itemID string, def map[string]interface{}) {
	for _, key := range []string{"Description", "Units", "DataType", "AliasOf"} {
		if v, present := def[key]; present {
			if _, ok := v.(string); !ok {
				e.emit(prism.CodeTypeMismatch, prism.SeverityError, itemID+"."+key,
					"item '%s': %s must be a string, got %s", itemID, key, jsonTypeName(v))
			}
		}
	}

	if dt, ok := def["DataType"].(string); ok && !validDataType(dt) {
		e.emit(prism.CodeTypeMismatch, prism.SeverityError, itemID+".DataType",
			"item '%s': unknown DataType %s", itemID, preview(dt))
	}

	if levels, present := def["Levels"]; present {
		e.checkScale(itemID, levels)
	}

	e.checkRanges(itemID, def)
}

// checkScale validates an enumerated scale: a non-empty mapping where
// every level has a unique numeric code and a non-empty label. Duplicate
// codes are an error, duplicate labels only a warning.
func (e *evaluator) checkScale(itemID string, levels interface{}) {
	field := itemID + ".Levels"

	m, ok := levels.(map[string]interface{})
	if !ok {
		e.emit(prism.CodeTypeMismatch, prism.SeverityError, field,
			"item '%s': Levels must be an object mapping codes to labels", itemID)
		return
	}
	if len(m) == 0 {
		e.emit(prism.CodeScaleEmpty, prism.SeverityError, field,
			"item '%s': scale has no levels", itemID)
		return
	}

	seenCodes := map[float64]string{}
	seenLabels := map[string]string{}

	for _, code := range sortedKeys(m) {
		n, err := parseLevelCode(code)
		if err != nil {
			e.emit(prism.CodeScaleInvalidCode, prism.SeverityError, field,
				"item '%s': level code %s is not numeric", itemID, preview(code))
		} else if prev, dup := seenCodes[n]; dup {
			e.emit(prism.CodeScaleDuplicateCode, prism.SeverityError, field,
				"item '%s': level codes %s and %s are numerically equal", itemID, preview(prev), preview(code))
		} else {
			seenCodes[n] = code
		}

		label, ok := m[code].(string)
		if !ok {
			e.emit(prism.CodeTypeMismatch, prism.SeverityError, field,
				"item '%s': label for level %s must be a string", itemID, preview(code))
			continue
		}
		if strings.TrimSpace(label) == "" {
			e.emit(prism.CodeScaleEmptyLabel, prism.SeverityError, field,
				"item '%s': level %s has an empty label", itemID, preview(code))
			continue
		}
		if prev, dup := seenLabels[label]; dup {
			e.emit(prism.CodeScaleDuplicateLabel, prism.SeverityWarning, field,
				"item '%s': levels %s and %s share label %s", itemID, preview(prev), preview(code), preview(label))
		} else {
			seenLabels[label] = code
		}
	}
}

// checkRanges validates range definitions on a biometric or survey item.
// Each declared range must be a [low, high] pair of numbers with
// low < high; when both are declared the warning range must be a strict
// subset of the absolute range. These checks are independent of any
// observed data values.
func (e *evaluator) checkRanges(itemID string, def map[string]interface{}) {
	abs, absDeclared, absOK := e.parseRange(itemID, "AbsoluteRange", def)
	warn, warnDeclared, warnOK := e.parseRange(itemID, "WarningRange", def)

	if !absDeclared || !warnDeclared || !absOK || !warnOK {
		return
	}

	contained := abs[0] <= warn[0] && warn[1] <= abs[1]
	proper := abs[0] < warn[0] || warn[1] < abs[1]
	if !contained || !proper {
		e.emit(prism.CodeRangeDefinitionInvalid, prism.SeverityError, itemID+".WarningRange",
			"item '%s': warning range [%v, %v] must be strictly contained in absolute range [%v, %v]",
			itemID, warn[0], warn[1], abs[0], abs[1])
	}
}

func (e *evaluator) parseRange(itemID, key string, def map[string]interface{}) ([2]float64, bool, bool) {
	raw, present := def[key]
	if !present {
		return [2]float64{}, false, false
	}

	field := itemID + "." + key
	pair, ok := raw.([]interface{})
	if !ok || len(pair) != 2 {
		e.emit(prism.CodeRangeDefinitionInvalid, prism.SeverityError, field,
			"item '%s': %s must be a [low, high] pair", itemID, key)
		return [2]float64{}, true, false
	}

	lo, loOK := toNumber(pair[0])
	hi, hiOK := toNumber(pair[1])
	if !loOK || !hiOK {
		e.emit(prism.CodeRangeDefinitionInvalid, prism.SeverityError, field,
			"item '%s': %s bounds must be numbers", itemID, key)
		return [2]float64{}, true, false
	}
	if lo >= hi {
		e.emit(prism.CodeRangeDefinitionInvalid, prism.SeverityError, field,
			"item '%s': %s low bound %v is not below high bound %v", itemID, key, lo, hi)
		return [2]float64{}, true, false
	}

	return [2]float64{lo, hi}, true, true
}

func typeMatches(v interface{}, t schema.FieldType) bool {
	switch t {
	case schema.FieldString:
		_, ok := v.(string)
		return ok
	case schema.FieldNumber:
		_, ok := toNumber(v)
		return ok
	case schema.FieldInteger:
		n, ok := toNumber(v)
		return ok && n == math.Trunc(n)
	case schema.FieldBoolean:
		_, ok := v.(bool)
		return ok
	case schema.FieldArray:
		_, ok := v.([]interface{})
		return ok
	case schema.FieldObject:
		_, ok := v.(map[string]interface{})
		return ok
	default:
		return true
	}
}

func toNumber(v interface{}) (float64, bool) {
	n, ok := v.(float64)
	return n, ok
}

func jsonTypeName(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func validDataType(dt string) bool {
	switch dt {
	case "string", "integer", "number", "boolean", "categorical":
		return true
	default:
		return false
	}
}

func parseLevelCode(code string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(code), 64)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func preview(s string) string {
	if len(s) > prism.MaxMessagePreviewLength {
		s = s[:prism.MaxMessagePreviewLength] + "…"
	}
	return "'" + s + "'"
}
