package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

type osFile struct {
	absPath string
	relPath string
	info    fs.FileInfo
}

func (f *osFile) Path() string         { return f.absPath }
func (f *osFile) RelativePath() string { return f.relPath }
func (f *osFile) Info() FileInfo       { return f.info }

func (f *osFile) ReadContent() ([]byte, error) {
	if f.info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", f.absPath)
	}
	return os.ReadFile(f.absPath)
}

type osDirectory struct {
	absPath string
}

func (d *osDirectory) Path() string { return d.absPath }

func (d *osDirectory) Walk(fn func(File, error) error) error {
	return filepath.WalkDir(d.absPath, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fn(nil, walkErr)
		}

		info, err := entry.Info()
		if err != nil {
			return fn(nil, fmt.Errorf("stat %s: %w", path, err))
		}

		rel, err := filepath.Rel(d.absPath, path)
		if err != nil {
			return fn(nil, fmt.Errorf("relative path for %s: %w", path, err))
		}

		return fn(&osFile{
			absPath: path,
			relPath: filepath.ToSlash(rel),
			info:    info,
		}, nil)
	})
}

// OSProvider implements Provider over the real operating-system tree.
type OSProvider struct{}

// NewOSProvider returns a provider backed by the OS filesystem.
func NewOSProvider() *OSProvider {
	return &OSProvider{}
}

func (p *OSProvider) Open(path string) (Directory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("access %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path for %s: %w", path, err)
	}

	return &osDirectory{absPath: abs}, nil
}

func (p *OSProvider) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (p *OSProvider) ReadDir(path string) ([]FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", path, err)
	}

	infos := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	return infos, nil
}

func (p *OSProvider) Stat(path string) (FileInfo, error) {
	return os.Stat(path)
}
