// Package discover finds the files that enter a context bundle.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phobologic/ctxbundle/internal/ignore"
	"github.com/phobologic/ctxbundle/internal/textfile"
)

var (
	// ErrDirectoryNotFound is returned when the collection root is absent.
	ErrDirectoryNotFound = errors.New("directory not found")
	// ErrFileNotFound is returned when an explicitly named file is absent.
	ErrFileNotFound = errors.New("file not found")
	// ErrNotTextFile is returned when an explicitly named file is not text.
	ErrNotTextFile = errors.New("not a text file")
)

// FileEntry represents a collected file.
type FileEntry struct {
	AbsPath string
	Path    string // relative to the project root, forward slashes
	Ext     string
}

// Options controls which files Collect keeps.
type Options struct {
	// Extensions keeps only files with one of these extensions (".py").
	// Empty means no filter.
	Extensions []string
	// ExcludeDirs and ExcludeFiles are paths relative to the project root.
	ExcludeDirs  []string
	ExcludeFiles []string
	// Ignore rejects paths it matches. Nil disables ignore rules.
	Ignore ignore.Matcher
	// IsText classifies files; defaults to textfile.IsText.
	IsText func(path string) bool
	Logger *slog.Logger
}

// Collect walks root/subdir and returns the eligible files sorted by
// relative path. Rejected directories prune their whole subtree, so a file
// under an ignored directory is excluded even when no rule matches the
// file's own path ("build/" drops build/x.py).
func Collect(root, subdir string, opts Options) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	start := filepath.Join(root, subdir)
	info, err := os.Stat(start)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, start)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	isText := opts.IsText
	if isText == nil {
		isText = textfile.IsText
	}

	extSet := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		extSet[ext] = struct{}{}
	}
	excludedDirs := absPaths(root, opts.ExcludeDirs)
	excludedFiles := make(map[string]struct{}, len(opts.ExcludeFiles))
	for _, p := range absPaths(root, opts.ExcludeFiles) {
		excludedFiles[p] = struct{}{}
	}

	var results []FileEntry

	err = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if path == start {
			return nil
		}

		skip := func() error {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return skip()
		}
		rel = filepath.ToSlash(rel)

		if hasHiddenSegment(rel) {
			return skip()
		}

		if underAny(path, excludedDirs) {
			logger.Debug("skipping excluded directory entry", "path", rel)
			return skip()
		}

		if opts.Ignore != nil && opts.Ignore.Matches(rel) {
			logger.Debug("skipping ignored path", "path", rel)
			return skip()
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		if _, ok := excludedFiles[path]; ok {
			logger.Debug("skipping excluded file", "path", rel)
			return nil
		}

		if !isText(path) {
			logger.Debug("skipping non-text file", "path", rel)
			return nil
		}

		ext := filepath.Ext(path)
		if len(extSet) > 0 {
			if _, ok := extSet[ext]; !ok {
				return nil
			}
		}

		results = append(results, FileEntry{AbsPath: path, Path: rel, Ext: ext})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// Resolve turns explicitly named root-relative paths into entries.
// Unlike Collect, a missing or non-text file is an error.
func Resolve(root string, paths []string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	entries := make([]FileEntry, 0, len(paths))
	for _, p := range paths {
		abs := filepath.Clean(filepath.Join(root, filepath.FromSlash(p)))
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, abs)
		}
		if !info.Mode().IsRegular() || !textfile.IsText(abs) {
			return nil, fmt.Errorf("%w: %s", ErrNotTextFile, abs)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", abs, err)
		}
		entries = append(entries, FileEntry{
			AbsPath: abs,
			Path:    filepath.ToSlash(rel),
			Ext:     filepath.Ext(abs),
		})
	}
	return entries, nil
}

// Exists reports whether the root-relative path names a regular text file.
func Exists(root, rel string) bool {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular() && textfile.IsText(abs)
}

func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

func absPaths(root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, filepath.Clean(filepath.Join(root, filepath.FromSlash(p))))
	}
	return out
}

func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
