package derivative

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

var defaultTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpe":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// optionalTypes can be enabled through configuration.
var optionalTypes = map[string]string{
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".svgz": "image/svg+xml",
}

// Types is the table of supported source extensions and their MIME types.
// Lookups are case-insensitive. A Types value is read-only once built.
type Types struct {
	mime map[string]string
}

// DefaultTypes returns the built-in table: png, jpg, jpe, jpeg and gif.
func DefaultTypes() *Types {
	t, _ := NewTypes()
	return t
}

// NewTypes returns the default table extended with the given optional
// extensions (".webp", ".svg", ".svgz").
func NewTypes(extra ...string) (*Types, error) {
	t := &Types{mime: make(map[string]string, len(defaultTypes)+len(extra))}
	for ext, m := range defaultTypes {
		t.mime[ext] = m
	}
	for _, ext := range extra {
		ext = normalizeExt(ext)
		m, ok := optionalTypes[ext]
		if !ok {
			if _, isDefault := defaultTypes[ext]; isDefault {
				continue
			}
			return nil, fmt.Errorf("unsupported image extension %q", ext)
		}
		t.mime[ext] = m
	}
	return t, nil
}

// IsOptionalExtension reports whether ext can be passed to NewTypes.
func IsOptionalExtension(ext string) bool {
	ext = normalizeExt(ext)
	_, ok := optionalTypes[ext]
	_, isDefault := defaultTypes[ext]
	return ok || isDefault
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Lookup returns the MIME type for ext (with leading dot).
func (t *Types) Lookup(ext string) (string, bool) {
	m, ok := t.mime[strings.ToLower(ext)]
	return m, ok
}

// ForPath returns the MIME type for the extension of p.
func (t *Types) ForPath(p string) (string, bool) {
	return t.Lookup(filepath.Ext(p))
}

// Supported reports whether p has a supported extension.
func (t *Types) Supported(p string) bool {
	_, ok := t.ForPath(p)
	return ok
}

// Extensions returns the supported extensions, sorted.
func (t *Types) Extensions() []string {
	exts := make([]string, 0, len(t.mime))
	for ext := range t.mime {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
