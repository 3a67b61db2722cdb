package library

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/prism-data/prism/internal/checksum"
	"github.com/prism-data/prism/internal/files/filesystem"
	"github.com/prism-data/prism/pkg/prism"
)

// DirChecker runs the library consistency check over every JSON sidecar
// found under a directory tree. It backs `prism library check`.
type DirChecker struct {
	Provider      filesystem.Provider
	Calc          checksum.Calculator
	SchemaVersion string

	// Reserved top-level sidecar keys that are not item definitions.
	Reserved []string
}

// CheckDir collects items from every .json file under dir and returns the
// consistency findings. Unreadable or malformed files become findings,
// not errors; only failure to open the directory itself is an error.
func (d *DirChecker) CheckDir(dir string) ([]prism.Finding, error) {
	items, _, findings, err := d.collectDir(dir)
	if err != nil {
		return nil, err
	}
	return append(findings, Check(items, d.SchemaVersion)...), nil
}

// Gate checks a draft sidecar against the published library for
// `prism library gate`: the draft must not redefine any published item
// divergently. A draft whose normalized document digest matches a
// published instrument is that instrument, reformatting aside, and skips
// the item comparison entirely.
func (d *DirChecker) Gate(draftPath, libraryDir string) ([]prism.Finding, error) {
	published, digests, findings, err := d.collectDir(libraryDir)
	if err != nil {
		return nil, err
	}

	draft, draftDigest, draftFindings := d.collectFile(draftPath, draftPath)
	findings = append(findings, draftFindings...)

	if draftDigest != "" {
		for _, digest := range digests {
			if digest == draftDigest {
				return findings, nil
			}
		}
	}
	return append(findings, GateDraft(draft, published, d.SchemaVersion)...), nil
}

func (d *DirChecker) collectDir(dir string) ([]SourcedDefinition, []string, []prism.Finding, error) {
	root, err := d.Provider.Open(dir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open library directory: %w", err)
	}

	var items []SourcedDefinition
	var digests []string
	var findings []prism.Finding

	err = root.Walk(func(f filesystem.File, walkErr error) error {
		if walkErr != nil {
			findings = append(findings, prism.Finding{
				Code:          prism.CodeIOFailure,
				Severity:      prism.SeverityError,
				Message:       walkErr.Error(),
				SchemaVersion: d.SchemaVersion,
			})
			return nil
		}
		if f.Info().IsDir() || !strings.HasSuffix(f.RelativePath(), prism.SidecarExtension) {
			return nil
		}
		if f.Info().Name() == prism.DatasetDescriptionFile || strings.HasPrefix(f.Info().Name(), ".") {
			return nil
		}

		fileItems, digest, fileFindings := d.collectFile(f.Path(), f.RelativePath())
		items = append(items, fileItems...)
		if digest != "" {
			digests = append(digests, digest)
		}
		findings = append(findings, fileFindings...)
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return items, digests, findings, nil
}

// collectFile reads and decodes one sidecar; reportPath is the path used
// in findings and conflict messages. The returned digest is the
// normalized checksum of the whole document, empty when the file could
// not be read or decoded.
func (d *DirChecker) collectFile(readPath, reportPath string) ([]SourcedDefinition, string, []prism.Finding) {
	content, err := d.Provider.ReadFile(readPath)
	if err != nil {
		return nil, "", []prism.Finding{{
			Code:          prism.CodeIOFailure,
			Severity:      prism.SeverityError,
			Path:          reportPath,
			Message:       fmt.Sprintf("reading sidecar: %v", err),
			SchemaVersion: d.SchemaVersion,
		}}
	}

	var sidecar map[string]interface{}
	if err := json.Unmarshal(content, &sidecar); err != nil {
		return nil, "", []prism.Finding{{
			Code:          prism.CodeInvalidJSON,
			Severity:      prism.SeverityError,
			Path:          reportPath,
			Message:       fmt.Sprintf("sidecar is not valid JSON: %v", err),
			SchemaVersion: d.SchemaVersion,
		}}
	}

	collector := NewCollector(d.Calc, d.Reserved...)
	return collector.Collect(reportPath, sidecar), d.Calc.CalculateNormalized(content), nil
}

// GateDraft compares draft items against the published set. A draft item
// whose ID exists in the published library with a different definition is
// a VariableConflict error; identical redefinition and brand-new IDs pass
// silently. Alias targets in the draft must resolve against the combined
// set.
func GateDraft(draft, published []SourcedDefinition, schemaVersion string) []prism.Finding {
	masters := make(map[string]SourcedDefinition, len(published))
	for _, item := range published {
		if item.AliasOf != "" {
			continue
		}
		if _, seen := masters[item.ItemID]; !seen {
			masters[item.ItemID] = item
		}
	}

	draftCanonicals := make(map[string]struct{}, len(draft))
	for _, item := range draft {
		if item.AliasOf == "" {
			draftCanonicals[item.ItemID] = struct{}{}
		}
	}

	var findings []prism.Finding
	for _, item := range draft {
		if item.AliasOf != "" {
			if _, local := draftCanonicals[item.AliasOf]; local {
				continue
			}
			findings = append(findings, checkDraftAlias(item, masters, published, schemaVersion)...)
			continue
		}
		master, exists := masters[item.ItemID]
		if !exists || item.Checksum == master.Checksum {
			continue
		}
		findings = append(findings, prism.Finding{
			Code:          prism.CodeVariableConflict,
			Severity:      prism.SeverityError,
			Path:          item.Path,
			Field:         item.ItemID,
			Message:       fmt.Sprintf("item '%s' is defined differently in %s and %s", item.ItemID, master.Path, item.Path),
			SchemaVersion: schemaVersion,
		})
	}
	return findings
}

func checkDraftAlias(item SourcedDefinition, masters map[string]SourcedDefinition, published []SourcedDefinition, schemaVersion string) []prism.Finding {
	if _, ok := masters[item.AliasOf]; ok {
		return nil
	}
	for _, pub := range published {
		if pub.ItemID == item.AliasOf {
			return []prism.Finding{{
				Code:          prism.CodeAliasChainUnsupported,
				Severity:      prism.SeverityWarning,
				Path:          item.Path,
				Field:         item.ItemID,
				Message:       fmt.Sprintf("item '%s' is an alias of '%s', which is itself an alias; alias chains are not supported", item.ItemID, item.AliasOf),
				SchemaVersion: schemaVersion,
			}}
		}
	}
	return []prism.Finding{{
		Code:          prism.CodeAliasUnknownTarget,
		Severity:      prism.SeverityWarning,
		Path:          item.Path,
		Field:         item.ItemID,
		Message:       fmt.Sprintf("item '%s' is an alias of '%s', which is not defined in the published library", item.ItemID, item.AliasOf),
		SchemaVersion: schemaVersion,
	}}
}
