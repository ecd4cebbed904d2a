package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the per-directory ignore file honored by the walker.
const IgnoreFileName = ".partsbinignore"

// Ignorer defines the interface for pattern matching.
type Ignorer interface {
	MatchesPath(path string) bool
}

// combinedIgnorer wraps two ignorers.
type combinedIgnorer struct {
	file     *gitignore.GitIgnore
	patterns *gitignore.GitIgnore
}

// MatchesPath returns true if the path matches any ignore pattern.
func (c *combinedIgnorer) MatchesPath(path string) bool {
	return c.file.MatchesPath(path) || c.patterns.MatchesPath(path)
}

// FileWalker implements Walker for traversing a file system.
type FileWalker struct {
	opts    WalkOptions
	ignorer Ignorer
	stats   WalkStats
	extSet  map[string]bool
}

// NewFileWalker creates a new document walker.
func NewFileWalker(opts WalkOptions) (*FileWalker, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}
	opts.Root = root

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", root)
	}

	w := &FileWalker{
		opts:   opts,
		extSet: NormalizeExtensions(opts.Extensions),
	}

	w.initIgnorer()

	return w, nil
}

// NormalizeExtensions builds a lookup set of lower-cased, dot-prefixed
// extensions. An empty input yields nil, meaning every document kind.
func NormalizeExtensions(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[strings.ToLower(ext)] = true
	}
	return set
}

// Accepts reports whether a path passes the extension filter and is a
// known document kind.
func Accepts(path string, extSet map[string]bool) bool {
	if !IsDocument(path) {
		return false
	}
	if extSet == nil {
		return true
	}
	return extSet[strings.ToLower(filepath.Ext(path))]
}

// initIgnorer initializes the ignore matcher.
func (w *FileWalker) initIgnorer() {
	w.ignorer = NewIgnorer(w.opts.Root, w.opts.IgnorePatterns, w.opts.UseIgnoreFile)
}

// NewIgnorer compiles patterns plus the built-in defaults into a matcher
// for paths relative to root. With useIgnoreFile, root's .partsbinignore
// is honored as well.
func NewIgnorer(root string, patterns []string, useIgnoreFile bool) Ignorer {
	var all []string
	all = append(all, patterns...)
	all = append(all, defaultIgnorePatterns...)

	if useIgnoreFile {
		ignorePath := filepath.Join(root, IgnoreFileName)
		if _, err := os.Stat(ignorePath); err == nil {
			gi, err := gitignore.CompileIgnoreFile(ignorePath)
			if err != nil {
				log.Warn("Failed to parse ignore file", "path", ignorePath, "error", err)
			} else {
				return &combinedIgnorer{
					file:     gi,
					patterns: gitignore.CompileIgnoreLines(all...),
				}
			}
		}
	}

	return gitignore.CompileIgnoreLines(all...)
}

// Walk traverses the directory tree.
func (w *FileWalker) Walk(fn func(DocumentInfo) error) error {
	w.stats = WalkStats{}

	return filepath.WalkDir(w.opts.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Debug("Error accessing path", "path", path, "error", err)
			return nil
		}

		relPath, err := filepath.Rel(w.opts.Root, path)
		if err != nil {
			relPath = path
		}

		if d.IsDir() {
			if path != w.opts.Root && w.shouldSkipDir(d.Name(), relPath) {
				w.stats.DirsSkipped++
				return filepath.SkipDir
			}
			return nil
		}

		if w.opts.MaxFileCount > 0 && w.stats.FilesFound >= w.opts.MaxFileCount {
			return filepath.SkipAll
		}

		if w.shouldSkipFile(d.Name(), relPath) {
			w.stats.FilesSkipped++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			log.Debug("Failed to get file info", "path", path, "error", err)
			return nil
		}

		if w.opts.MaxFileSize > 0 && info.Size() > w.opts.MaxFileSize {
			w.stats.FilesSkipped++
			w.stats.SkippedBytes += info.Size()
			return nil
		}

		if !Accepts(path, w.extSet) {
			w.stats.FilesSkipped++
			return nil
		}

		doc := DocumentInfo{
			Path:    path,
			RelPath: relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Kind:    DetectKind(path),
		}

		w.stats.FilesFound++
		w.stats.TotalBytes += info.Size()

		return fn(doc)
	})
}

// Stats returns the walk statistics.
func (w *FileWalker) Stats() WalkStats {
	return w.stats
}

// shouldSkipDir checks if a directory should be skipped.
func (w *FileWalker) shouldSkipDir(name, relPath string) bool {
	if name == ".git" {
		return true
	}

	if !w.opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}

	if w.ignorer != nil && w.ignorer.MatchesPath(relPath+"/") {
		return true
	}

	return false
}

// shouldSkipFile checks if a file should be skipped.
func (w *FileWalker) shouldSkipFile(name, relPath string) bool {
	if !w.opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}

	if w.ignorer != nil && w.ignorer.MatchesPath(relPath) {
		return true
	}

	return false
}

// HashContent computes the xxhash of content bytes.
func HashContent(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}

// Default patterns to ignore.
var defaultIgnorePatterns = []string{
	// Editor and OS droppings
	"*.swp",
	"*~",
	".DS_Store",
	"Thumbs.db",

	// Thumbnails and processed copies
	"thumbs/",
	"*.thumb.*",

	// Store files living next to the scans
	"*.db",
	"*.sqlite",
	"*.sqlite3",
	"*.jsonld",
}
