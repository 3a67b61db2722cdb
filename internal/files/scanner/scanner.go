// Package scanner walks a dataset tree and turns it into the inputs of a
// validation run: parsed data files with their resolved sidecars, the
// dataset description, and the findings that fall out of the walk itself
// (parse failures, orphaned sidecars, empty directories, read errors).
package scanner

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-json"

	"github.com/prism-data/prism/internal/entity"
	"github.com/prism-data/prism/internal/files/filesystem"
	"github.com/prism-data/prism/pkg/prism"
)

// IgnoreFile is the optional per-dataset ignore file at the dataset root,
// one doublestar pattern per line.
const IgnoreFile = ".prismignore"

// systemFiles are junk entries desktop environments leave behind; they
// are always skipped and never count toward directory emptiness.
var systemFiles = []string{".DS_Store", "Thumbs.db", "desktop.ini"}

// DataFile is one discovered data file with its resolved sidecar.
type DataFile struct {
	// RelPath is the dataset-relative path, forward slashes.
	RelPath string

	// Entities is the parsed decomposition of the file name.
	Entities prism.EntitySet

	// Datatype is the name of the containing directory, "." for files at
	// the dataset root.
	Datatype string

	// Sidecar is the decoded JSON companion, nil when none was found or
	// it could not be read. SidecarPath is empty when none was found.
	Sidecar     map[string]interface{}
	SidecarPath string
}

// HasSidecar reports whether a companion file was resolved, readable or
// not.
func (f DataFile) HasSidecar() bool { return f.SidecarPath != "" }

// Result is everything a validation run needs from the tree.
type Result struct {
	// Description is the decoded dataset_description.json, nil when the
	// file is absent or malformed (a finding says which).
	Description map[string]interface{}

	// Files are the discovered data files sorted by relative path.
	Files []DataFile

	// Findings accumulated during the walk.
	Findings []prism.Finding
}

// Scanner discovers dataset files through a filesystem provider. A
// Scanner is stateless and safe for concurrent use as long as the
// provider is.
type Scanner struct {
	provider filesystem.Provider

	// Ignore holds extra doublestar patterns, typically from prism.yaml.
	// Patterns from the dataset's ignore file are added per scan.
	Ignore []string
}

// New creates a scanner over the OS filesystem.
func New() *Scanner {
	return &Scanner{provider: filesystem.NewOSProvider()}
}

// NewWithProvider creates a scanner over a custom provider, used by tests
// with in-memory trees.
func NewWithProvider(provider filesystem.Provider) *Scanner {
	if provider == nil {
		panic("provider cannot be nil")
	}
	return &Scanner{provider: provider}
}

// Scan walks the dataset rooted at datasetPath. Only failure to open the
// root is returned as an error; every per-file problem becomes a finding
// and the scan continues.
func (s *Scanner) Scan(datasetPath string) (Result, error) {
	root, err := s.provider.Open(datasetPath)
	if err != nil {
		return Result{}, fmt.Errorf("open dataset: %w", err)
	}

	w := &walkState{
		scanner:     s,
		root:        root,
		ignore:      append([]string{}, s.Ignore...),
		sidecars:    make(map[string]string),
		childCount:  make(map[string]int),
		ignoredDirs: make(map[string]bool),
	}
	w.loadIgnoreFile(datasetPath)

	if err := w.walk(); err != nil {
		return Result{}, err
	}
	w.resolveSidecars()
	w.flagOrphans()
	w.flagEmptyDirs()

	sort.Slice(w.result.Files, func(i, j int) bool {
		return w.result.Files[i].RelPath < w.result.Files[j].RelPath
	})
	return w.result, nil
}

type walkState struct {
	scanner *Scanner
	root    filesystem.Directory
	ignore  []string
	result  Result

	// sidecars maps relative path to absolute path for every .json
	// companion candidate seen during the walk.
	sidecars map[string]string
	used     []string

	dirs        []string
	childCount  map[string]int
	ignoredDirs map[string]bool
}

func (w *walkState) loadIgnoreFile(datasetPath string) {
	content, err := w.scanner.provider.ReadFile(path.Join(datasetPath, IgnoreFile))
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w.ignore = append(w.ignore, line)
	}
}

func (w *walkState) walk() error {
	return w.root.Walk(func(f filesystem.File, walkErr error) error {
		if walkErr != nil {
			w.emit(prism.CodeIOFailure, prism.SeverityError, "", "", "walking dataset: %v", walkErr)
			return nil
		}

		rel := f.RelativePath()
		if rel == "." {
			return nil
		}
		if w.skipped(rel) {
			if f.Info().IsDir() {
				w.ignoredDirs[rel] = true
			}
			return nil
		}

		w.childCount[path.Dir(rel)]++
		if f.Info().IsDir() {
			w.dirs = append(w.dirs, rel)
			return nil
		}

		name := f.Info().Name()
		switch {
		case rel == prism.DatasetDescriptionFile:
			w.readDescription(f)
		case name == IgnoreFile:
			// Already consumed before the walk.
		case strings.HasSuffix(name, prism.SidecarExtension):
			w.sidecars[rel] = f.Path()
		default:
			w.readDataFile(rel)
		}
		return nil
	})
}

// skipped reports whether an entry is a system file, matches an ignore
// pattern, or lives under an ignored directory.
func (w *walkState) skipped(rel string) bool {
	name := path.Base(rel)
	for _, junk := range systemFiles {
		if name == junk {
			return true
		}
	}
	for dir := path.Dir(rel); dir != "."; dir = path.Dir(dir) {
		if w.ignoredDirs[dir] {
			return true
		}
	}
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (w *walkState) readDescription(f filesystem.File) {
	content, err := f.ReadContent()
	if err != nil {
		w.emit(prism.CodeIOFailure, prism.SeverityError, f.RelativePath(), "", "reading dataset description: %v", err)
		return
	}
	var desc map[string]interface{}
	if err := json.Unmarshal(content, &desc); err != nil {
		w.emit(prism.CodeInvalidJSON, prism.SeverityError, f.RelativePath(), "", "dataset description is not valid JSON: %v", err)
		return
	}
	w.result.Description = desc
}

func (w *walkState) readDataFile(rel string) {
	es, err := entity.Parse(rel)
	if err != nil {
		w.emitParseFailure(rel, err)
		return
	}

	datatype := path.Base(path.Dir(rel))
	if path.Dir(rel) == "." {
		datatype = "."
	}

	w.result.Files = append(w.result.Files, DataFile{
		RelPath:  rel,
		Entities: es,
		Datatype: datatype,
	})
}

// resolveSidecars pairs every data file with its companion: an exact
// sibling first, then an inherited dataset-root sidecar named after the
// task and suffix.
func (w *walkState) resolveSidecars() {
	for i := range w.result.Files {
		f := &w.result.Files[i]

		sibling := path.Join(path.Dir(f.RelPath), entity.SidecarName(f.Entities))
		if path.Dir(f.RelPath) == "." {
			sibling = entity.SidecarName(f.Entities)
		}
		if abs, ok := w.sidecars[sibling]; ok {
			w.attachSidecar(f, sibling, abs)
			continue
		}

		if task, ok := f.Entities.Get("task"); ok {
			inherited := "task-" + task + "_" + f.Entities.Suffix + prism.SidecarExtension
			if abs, ok := w.sidecars[inherited]; ok {
				w.attachSidecar(f, inherited, abs)
			}
		}
	}
}

func (w *walkState) attachSidecar(f *DataFile, rel, abs string) {
	f.SidecarPath = rel
	w.used = append(w.used, rel)

	content, err := w.scanner.provider.ReadFile(abs)
	if err != nil {
		w.emit(prism.CodeIOFailure, prism.SeverityError, rel, "", "reading sidecar: %v", err)
		return
	}
	var sidecar map[string]interface{}
	if err := json.Unmarshal(content, &sidecar); err != nil {
		w.emit(prism.CodeInvalidJSON, prism.SeverityError, rel, "", "sidecar is not valid JSON: %v", err)
		return
	}
	f.Sidecar = sidecar
}

// flagOrphans warns about sidecar files no data file claimed.
func (w *walkState) flagOrphans() {
	used := make(map[string]bool, len(w.used))
	for _, rel := range w.used {
		used[rel] = true
	}

	orphans := make([]string, 0)
	for rel := range w.sidecars {
		if !used[rel] {
			orphans = append(orphans, rel)
		}
	}
	sort.Strings(orphans)

	for _, rel := range orphans {
		w.emit(prism.CodeOrphanedSidecar, prism.SeverityWarning, rel, "",
			"sidecar has no matching data file")
	}
}

func (w *walkState) flagEmptyDirs() {
	sort.Strings(w.dirs)
	for _, dir := range w.dirs {
		if w.childCount[dir] == 0 {
			w.emit(prism.CodeEmptyDirectory, prism.SeverityWarning, dir, "",
				"directory contains no files")
		}
	}
}

func (w *walkState) emit(code prism.Code, sev prism.Severity, relPath, field, format string, args ...interface{}) {
	w.result.Findings = append(w.result.Findings, prism.Finding{
		Code:     code,
		Severity: sev,
		Path:     relPath,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (w *walkState) emitParseFailure(rel string, err error) {
	f := prism.Finding{
		Code:     prism.CodeParseFailure,
		Severity: prism.SeverityError,
		Path:     rel,
	}
	if pe, ok := err.(*entity.ParseError); ok {
		f.Message = pe.Message
		if pe.Hint != "" {
			f.Message += " (" + pe.Hint + ")"
		}
	} else {
		f.Message = err.Error()
	}
	w.result.Findings = append(w.result.Findings, f)
}
