// Package filesystem abstracts dataset tree access behind a small
// provider interface so the scanner and library checker run identically
// against the real OS tree and the in-memory fixture tree used in tests.
package filesystem

import (
	"io/fs"
)

// FileInfo aliases fs.FileInfo so callers stay compatible with the
// standard fs ecosystem.
type FileInfo = fs.FileInfo

// File is one entry discovered during a walk, file or directory.
type File interface {
	// Path returns the absolute path of the entry.
	Path() string

	// RelativePath returns the path relative to the opened root, with
	// forward slashes.
	RelativePath() string

	// Info returns the entry metadata.
	Info() FileInfo

	// ReadContent returns the file content. Calling it on a directory is
	// an error.
	ReadContent() ([]byte, error)
}

// Directory is an opened root that can be traversed.
type Directory interface {
	// Path returns the absolute path of the root.
	Path() string

	// Walk visits every entry under the root in lexicographic path
	// order, the root itself included. A non-nil error from fn stops the
	// walk and is returned. Traversal errors are delivered through fn
	// with a nil File.
	Walk(fn func(File, error) error) error
}

// Provider opens directories and reads individual files.
type Provider interface {
	// Open opens the directory at path. The path must exist and be a
	// directory.
	Open(path string) (Directory, error)

	// ReadFile reads one file at the given path.
	ReadFile(path string) ([]byte, error)

	// ReadDir lists the immediate entries of a directory.
	ReadDir(path string) ([]FileInfo, error)

	// Stat returns metadata for the given path.
	Stat(path string) (FileInfo, error)
}
