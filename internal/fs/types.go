// Package fs discovers scanned documents on disk and fingerprints content.
package fs

import "time"

// DocumentInfo represents a document found during discovery.
type DocumentInfo struct {
	Path    string    // Absolute path to the document
	RelPath string    // Path relative to the root
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time
	Kind    string    // Document kind (image, pdf, text)
}

// WalkOptions configures the document walker.
type WalkOptions struct {
	// Root is the directory to start walking from.
	Root string

	// MaxFileSize is the maximum document size to process (in bytes).
	MaxFileSize int64

	// MaxFileCount is the maximum number of documents to process.
	MaxFileCount int

	// IgnorePatterns are additional patterns to ignore (gitignore syntax).
	IgnorePatterns []string

	// IncludeHidden includes hidden files and directories.
	IncludeHidden bool

	// UseIgnoreFile respects a .partsbinignore file in the root.
	UseIgnoreFile bool

	// Extensions limits discovery to specific file extensions.
	// Empty means every known document kind.
	Extensions []string
}

// DefaultWalkOptions returns sensible defaults for walking.
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{
		MaxFileSize:   20 * 1024 * 1024, // 20MB
		MaxFileCount:  10000,
		UseIgnoreFile: true,
	}
}

// Walker walks a directory tree and yields documents.
type Walker interface {
	// Walk walks the directory tree and calls fn for each document.
	// The walk stops if fn returns an error.
	Walk(fn func(DocumentInfo) error) error

	// Stats returns statistics about the walk.
	Stats() WalkStats
}

// WalkStats contains statistics from a directory walk.
type WalkStats struct {
	FilesFound   int   // Documents found
	FilesSkipped int   // Files skipped due to size/pattern/kind
	DirsSkipped  int   // Directories skipped
	TotalBytes   int64 // Total bytes of documents found
	SkippedBytes int64 // Total bytes of skipped files
}
