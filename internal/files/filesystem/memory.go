package filesystem

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type memoryInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (i *memoryInfo) Name() string       { return i.name }
func (i *memoryInfo) Size() int64        { return i.size }
func (i *memoryInfo) Mode() fs.FileMode  { return i.mode }
func (i *memoryInfo) ModTime() time.Time { return i.modTime }
func (i *memoryInfo) IsDir() bool        { return i.isDir }
func (i *memoryInfo) Sys() interface{}   { return nil }

type memoryFile struct {
	absPath string
	relPath string
	content []byte
	info    *memoryInfo
}

func (f *memoryFile) Path() string         { return f.absPath }
func (f *memoryFile) RelativePath() string { return f.relPath }
func (f *memoryFile) Info() FileInfo       { return f.info }

func (f *memoryFile) ReadContent() ([]byte, error) {
	if f.info.isDir {
		return nil, fmt.Errorf("path is a directory, not a file: %s", f.absPath)
	}
	return f.content, nil
}

type memoryDirectory struct {
	absPath string
	fs      *MemoryProvider
}

func (d *memoryDirectory) Path() string { return d.absPath }

func (d *memoryDirectory) Walk(fn func(File, error) error) error {
	entries := d.fs.entriesUnder(d.absPath)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].absPath < entries[j].absPath
	})

	for _, entry := range entries {
		// Entries were recorded relative to the provider root; recompute
		// against the opened directory so scanners see the same shape as
		// the OS provider.
		rel, err := filepath.Rel(d.absPath, entry.absPath)
		if err != nil {
			rel = entry.relPath
		}
		visited := *entry
		visited.relPath = filepath.ToSlash(rel)

		if err := fn(&visited, nil); err != nil {
			return err
		}
	}
	return nil
}

// MemoryProvider implements Provider over an in-memory tree. Tests build
// dataset fixtures with AddFile and AddDir; no temp directories needed.
type MemoryProvider struct {
	files map[string]*memoryFile
	root  string
}

// NewMemoryProvider creates an empty in-memory tree rooted at root.
func NewMemoryProvider(root string) *MemoryProvider {
	root = path.Clean(filepath.ToSlash(root))

	p := &MemoryProvider{
		files: make(map[string]*memoryFile),
		root:  root,
	}
	p.files[root] = &memoryFile{
		absPath: root,
		relPath: ".",
		info: &memoryInfo{
			name:    path.Base(root),
			mode:    0o755 | fs.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		},
	}
	return p
}

// AddFile stores content at the given path, creating parent directories.
// Relative paths are resolved against the provider root.
func (p *MemoryProvider) AddFile(filePath, content string) {
	abs := p.abs(filePath)
	rel, err := filepath.Rel(p.root, abs)
	if err != nil {
		rel = filePath
	}

	p.files[abs] = &memoryFile{
		absPath: abs,
		relPath: filepath.ToSlash(rel),
		content: []byte(content),
		info: &memoryInfo{
			name:    path.Base(abs),
			size:    int64(len(content)),
			mode:    0o644,
			modTime: time.Now(),
			isDir:   false,
		},
	}
	p.ensureParents(abs)
}

// AddDir creates an empty directory entry, for empty-directory fixtures.
func (p *MemoryProvider) AddDir(dirPath string) {
	abs := p.abs(dirPath)
	p.addDirEntry(abs)
	p.ensureParents(abs)
}

func (p *MemoryProvider) abs(in string) string {
	in = filepath.ToSlash(in)
	if strings.HasPrefix(in, "/") {
		return path.Clean(in)
	}
	return path.Clean(path.Join(p.root, in))
}

func (p *MemoryProvider) ensureParents(abs string) {
	dir := path.Dir(abs)
	if dir == "." || dir == "/" || dir == p.root {
		return
	}
	if _, exists := p.files[dir]; !exists {
		p.addDirEntry(dir)
	}
	p.ensureParents(dir)
}

func (p *MemoryProvider) addDirEntry(abs string) {
	rel, err := filepath.Rel(p.root, abs)
	if err != nil {
		rel = abs
	}
	p.files[abs] = &memoryFile{
		absPath: abs,
		relPath: filepath.ToSlash(rel),
		info: &memoryInfo{
			name:    path.Base(abs),
			mode:    0o755 | fs.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		},
	}
}

func (p *MemoryProvider) entriesUnder(base string) []*memoryFile {
	var entries []*memoryFile
	for entryPath, file := range p.files {
		if entryPath == base || strings.HasPrefix(entryPath, base+"/") {
			entries = append(entries, file)
		}
	}
	return entries
}

func (p *MemoryProvider) Open(openPath string) (Directory, error) {
	abs := p.root
	if openPath != "" && openPath != "." {
		abs = p.abs(openPath)
	}

	file, exists := p.files[abs]
	if !exists {
		return nil, fmt.Errorf("directory not found: %s", openPath)
	}
	if !file.info.isDir {
		return nil, fmt.Errorf("path is not a directory: %s", openPath)
	}

	return &memoryDirectory{absPath: abs, fs: p}, nil
}

func (p *MemoryProvider) ReadFile(filePath string) ([]byte, error) {
	file, exists := p.files[p.abs(filePath)]
	if !exists {
		return nil, fmt.Errorf("file not found: %s", filePath)
	}
	return file.ReadContent()
}

func (p *MemoryProvider) ReadDir(dirPath string) ([]FileInfo, error) {
	abs := p.abs(dirPath)
	if _, exists := p.files[abs]; !exists {
		return nil, fmt.Errorf("directory not found: %s", dirPath)
	}

	var infos []FileInfo
	for entryPath, file := range p.files {
		if path.Dir(entryPath) == abs && entryPath != abs {
			infos = append(infos, file.info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}

func (p *MemoryProvider) Stat(statPath string) (FileInfo, error) {
	file, exists := p.files[p.abs(statPath)]
	if !exists {
		return nil, fmt.Errorf("path not found: %s", statPath)
	}
	return file.info, nil
}
