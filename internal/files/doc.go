// Package files provides file-related functionality organized into sub-packages.
//
// This package is organized into the following sub-packages:
//   - filesystem: Filesystem abstraction interfaces and implementations (OS and in-memory)
//   - scanner: Dataset tree discovery, sidecar resolution and metadata extraction
//
// # Usage
//
//	import (
//	    "github.com/prism-data/prism/internal/files/filesystem"
//	    "github.com/prism-data/prism/internal/files/scanner"
//	)
//
//	// Scan a dataset
//	s := scanner.New()
//	result, err := s.Scan("./study-2025")
//
// # Organization
//
// Each sub-package is focused on a specific concern:
//   - filesystem: Provides filesystem abstraction for testability
//   - scanner: Handles tree walking, ignore patterns and sidecar attachment
package files
