// Package registry collects the derivatives a batch generation run must
// produce.
//
// A Registry is created per run and passed explicitly to whatever renders
// markup (see internal/markup) and to the batch generator. Entries are
// registry query strings such as "/photos/cat.jpg?style=small"; an entry
// without a style asks for a plain copy of the source.
package registry

import (
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ironsheep/image-styles/internal/derivative"
	serrors "github.com/ironsheep/image-styles/internal/errors"
	"github.com/ironsheep/image-styles/internal/logfields"
	"github.com/ironsheep/image-styles/internal/util/sets"
)

// Registry is an insertion-ordered list of entries, safe for concurrent
// appends.
type Registry struct {
	mu      sync.Mutex
	entries []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Add appends entry.
func (r *Registry) Add(entry string) {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}

// AddKey appends the query form of k.
func (r *Registry) AddKey(k derivative.Key) {
	r.Add(k.Query())
}

// Len returns the number of entries, duplicates included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Entries returns a copy of the entries in insertion order.
func (r *Registry) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

// Dedupe removes repeated entries, keeping the first occurrence of each.
// Entries are compared literally.
func (r *Registry) Dedupe() {
	r.mu.Lock()
	r.entries = sets.Unique(r.entries)
	r.mu.Unlock()
}

// Catalog is the part of a style catalog force generation needs.
type Catalog interface {
	Has(name string) bool
}

// ForceGenerate adds an entry for every supported image below baseDir
// matching the glob configured for a style. patterns maps style names to
// doublestar patterns relative to baseDir ("**/*", "blog/*.jpg").
//
// Styles missing from the catalog, patterns matching nothing and images whose
// path contains "?" are logged and skipped. It returns the number of entries added and the warnings
// raised; only an unreadable baseDir or a malformed pattern aborts a style,
// never the whole call.
func (r *Registry) ForceGenerate(baseDir string, patterns map[string]string, catalog Catalog, types *derivative.Types, logger *slog.Logger) (int, []error) {
	if logger == nil {
		logger = slog.Default()
	}
	if types == nil {
		types = derivative.DefaultTypes()
	}

	styleNames := make([]string, 0, len(patterns))
	for name := range patterns {
		styleNames = append(styleNames, name)
	}
	sort.Strings(styleNames)

	fsys := os.DirFS(baseDir)
	added := 0
	var warnings []error

	for _, styleName := range styleNames {
		pattern := patterns[styleName]
		if !catalog.Has(styleName) {
			err := serrors.UnknownStyle(styleName).WithContext("pattern", pattern)
			logger.Warn("Force generation style does not match an image style",
				logfields.Style(styleName), logfields.Pattern(pattern))
			warnings = append(warnings, err)
			continue
		}

		matches, err := doublestar.Glob(fsys, cleanPattern(pattern), doublestar.WithFilesOnly())
		if err != nil {
			logger.Warn("Invalid force generation pattern",
				logfields.Style(styleName), logfields.Pattern(pattern), logfields.Error(err))
			warnings = append(warnings, serrors.GlobNoMatches(styleName, pattern).WithContext("cause", err.Error()))
			continue
		}

		sort.Strings(matches)
		var images []string
		for _, m := range matches {
			if !types.Supported(m) {
				continue
			}
			// "?" starts the style query in an entry
			if strings.Contains(m, "?") {
				logger.Warn("Skipping image whose path cannot be an entry",
					logfields.Style(styleName), logfields.Source("/"+m))
				warnings = append(warnings, serrors.UnaddressableSource("/"+m).WithContext("style", styleName))
				continue
			}
			images = append(images, m)
		}
		if len(images) == 0 {
			err := serrors.GlobNoMatches(styleName, pattern)
			logger.Warn("No images found in base directory",
				slog.String("base_dir", baseDir), logfields.Style(styleName), logfields.Pattern(pattern))
			warnings = append(warnings, err)
			continue
		}

		for _, rel := range images {
			r.AddKey(derivative.Key{Source: "/" + rel, Style: styleName})
			added++
		}
	}
	return added, warnings
}

// cleanPattern makes a configured pattern relative to the glob root.
func cleanPattern(pattern string) string {
	pattern = strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(pattern, "./")), "/")
	if pattern == "" {
		return "."
	}
	return pattern
}
