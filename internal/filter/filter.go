// Package filter decides whether a discovered path is eligible for
// indexing. Filtering never raises: an unreadable, oversized, or excluded
// file is silently skipped, because partial indexing is expected and
// acceptable.
package filter

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// DefaultMaxFileSize is the size ceiling for indexable files.
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// IgnoreFileName is the workspace ignore rule file honored by the filter.
const IgnoreFileName = ".gitignore"

// Options configures a Filter.
type Options struct {
	Root            string
	MaxFileSize     int64    // bytes; 0 means DefaultMaxFileSize
	ExcludeGlobs    []string // doublestar patterns, matched against root-relative paths
	AllowExtensions []string // when non-empty, only these extensions (without dot) pass
}

// Filter applies exclusion rules to candidate paths. Reload acquires the
// write lock; Eligible and SkipDir acquire the read lock.
type Filter struct {
	mu          sync.RWMutex
	root        string
	maxFileSize int64
	excludes    []string
	allowExts   map[string]struct{}
	gitIgnore   gitignore.GitIgnore
}

// New builds a Filter rooted at opts.Root and loads .gitignore if present.
func New(opts Options) *Filter {
	f := &Filter{
		root:        opts.Root,
		maxFileSize: opts.MaxFileSize,
		excludes:    opts.ExcludeGlobs,
	}
	if f.maxFileSize <= 0 {
		f.maxFileSize = DefaultMaxFileSize
	}
	if len(opts.AllowExtensions) > 0 {
		f.allowExts = make(map[string]struct{}, len(opts.AllowExtensions))
		for _, ext := range opts.AllowExtensions {
			f.allowExts[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
		}
	}
	f.gitIgnore = loadIgnoreFile(filepath.Join(f.root, IgnoreFileName), f.root)
	return f
}

// Eligible reports whether path should be indexed. It returns false for
// paths that do not exist, are not regular files, exceed the size ceiling,
// carry a denylisted extension, miss the allowlist, or match an exclusion
// rule.
func (f *Filter) Eligible(path string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if info.Size() > f.maxFileSize {
		return false
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if _, denied := binaryExtensions[ext]; denied {
		return false
	}
	if f.allowExts != nil {
		if _, ok := f.allowExts[ext]; !ok {
			return false
		}
	}

	rel := f.relative(path)
	for _, part := range strings.Split(rel, "/") {
		if _, skip := skipDirs[part]; skip {
			return false
		}
	}
	if f.matchesExcludes(rel) {
		return false
	}
	if f.gitIgnore != nil {
		if match := f.gitIgnore.Relative(rel, false); match != nil && match.Ignore() {
			return false
		}
	}
	return true
}

// SkipDir reports whether a directory subtree should be pruned during
// traversal rather than filtered file by file.
func (f *Filter) SkipDir(path string) bool {
	name := filepath.Base(path)
	if _, skip := skipDirs[name]; skip {
		return true
	}
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	rel := f.relative(path)
	if f.matchesExcludes(rel) {
		return true
	}
	if f.gitIgnore != nil {
		if match := f.gitIgnore.Relative(rel, true); match != nil && match.Ignore() {
			return true
		}
	}
	return false
}

// MaxFileSize returns the configured size ceiling.
func (f *Filter) MaxFileSize() int64 {
	return f.maxFileSize
}

// Reload re-reads the .gitignore file from disk. Called by the watcher
// when ignore rules change.
func (f *Filter) Reload() {
	gi := loadIgnoreFile(filepath.Join(f.root, IgnoreFileName), f.root)

	f.mu.Lock()
	f.gitIgnore = gi
	f.mu.Unlock()
}

// relative returns path relative to the root with forward slashes.
func (f *Filter) relative(path string) string {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// matchesExcludes checks the configured doublestar patterns against the
// relative path and its basename.
func (f *Filter) matchesExcludes(rel string) bool {
	base := filepath.Base(rel)
	for _, pattern := range f.excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func loadIgnoreFile(path, base string) gitignore.GitIgnore {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = file.Close() }()
	return gitignore.New(file, base, nil)
}
