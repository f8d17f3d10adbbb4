package finder

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmarc580625/medialocate/internal/logging"
	"github.com/jmarc580625/medialocate/internal/metrics"
)

// ErrNotDirectory is returned when a finder is constructed on a root path
// that is not an existing directory.
var ErrNotDirectory = errors.New("root path is not a directory")

// Counters reports traversal statistics for one finder. Pruned subtrees
// contribute nothing.
type Counters struct {
	// Dirs is the number of directories visited.
	Dirs int
	// Files is the number of raw file entries seen in visited directories.
	Files int
	// Depth is the maximum depth reached, relative to the root.
	Depth int
	// Found is the number of files that survived all filters.
	Found int
}

// Map renders the counters as a flat name->value map for reporting.
func (c Counters) Map() map[string]int {
	return map[string]int{
		"dirs":  c.Dirs,
		"files": c.Files,
		"depth": c.Depth,
		"found": c.Found,
	}
}

// Config bounds and filters a finder's traversal.
type Config struct {
	// Extensions is a case-insensitive suffix allow-list (with or without
	// leading dot). Empty means no extension filter.
	Extensions []string
	// Matches is an exact-basename allow-list. Empty means no name filter.
	Matches []string
	// Prune names directories skipped wholesale wherever they appear.
	Prune []string
	// MinModTime drops files not modified after this instant. The zero
	// time disables the filter.
	MinModTime time.Time
	// MaxDepth bounds traversal relative to the root: negative is
	// unbounded, 0 visits the root directory only.
	MaxDepth int
}

// Finder enumerates candidate files under a root directory, lazily, with
// extension/name filtering, directory pruning and depth/age bounds.
type Finder struct {
	root       string
	extensions []string
	matches    map[string]bool
	prune      map[string]bool
	minModTime time.Time
	maxDepth   int
	counters   Counters
}

// New creates a finder rooted at root, which must be an existing directory.
func New(root string, cfg Config) (*Finder, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrNotDirectory, root)
	}

	f := &Finder{
		root:       root,
		matches:    make(map[string]bool, len(cfg.Matches)),
		prune:      make(map[string]bool, len(cfg.Prune)),
		minModTime: cfg.MinModTime,
		maxDepth:   cfg.MaxDepth,
	}
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions = append(f.extensions, strings.ToLower(ext))
	}
	for _, name := range cfg.Matches {
		f.matches[name] = true
	}
	for _, name := range cfg.Prune {
		f.prune[name] = true
	}
	return f, nil
}

// Unbounded is the MaxDepth value for unlimited traversal.
const Unbounded = -1

// Find walks the tree top-down and yields surviving file paths. The walk is
// lazy: directories are read as the consumer pulls results, and abandoning
// the sequence stops the traversal. Order is deterministic per run
// (lexical within each directory).
//
// A directory whose basename is in the prune set, or whose depth exceeds the
// configured maximum, is skipped along with its entire subtree; its siblings
// are still visited.
func (f *Finder) Find() iter.Seq[string] {
	return func(yield func(string) bool) {
		f.walk(f.root, 0, yield)
	}
}

// walk visits one directory; it returns false when the consumer stopped the
// sequence.
func (f *Finder) walk(dir string, depth int, yield func(string) bool) bool {
	base := filepath.Base(dir)
	if f.prune[base] {
		logging.Debug("pruned directory: %s", dir)
		return true
	}
	if f.maxDepth >= 0 && depth > f.maxDepth {
		return true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("cannot read directory %s: %v", dir, err)
		return true
	}

	f.counters.Dirs++
	metrics.FinderDirsVisited.Inc()
	if depth > f.counters.Depth {
		f.counters.Depth = depth
	}

	// os.ReadDir sorts entries, which keeps yield order deterministic.
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		f.counters.Files++
		metrics.FinderFilesSeen.Inc()

		name := entry.Name()
		if !f.matchExtension(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if !f.matchAge(path) {
			continue
		}
		if len(f.matches) > 0 && !f.matches[name] {
			continue
		}

		f.counters.Found++
		metrics.FinderFilesFound.Inc()
		if !yield(path) {
			return false
		}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if !f.walk(filepath.Join(dir, entry.Name()), depth+1, yield) {
			return false
		}
	}
	return true
}

func (f *Finder) matchExtension(name string) bool {
	if len(f.extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range f.extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (f *Finder) matchAge(path string) bool {
	if f.minModTime.IsZero() {
		return true
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.ModTime().After(f.minModTime)
}

// GetCounters returns the traversal statistics accumulated so far.
func (f *Finder) GetCounters() Counters {
	return f.counters
}
