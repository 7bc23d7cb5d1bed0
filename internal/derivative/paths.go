// Package derivative names, locates and writes derivative image files.
//
// A derivative is identified by a Key: a source path relative to the images
// base directory plus an optional style name. Its location on disk is a pure
// function of the key and an output root, and the presence of that file is
// the only cache signal. Once written, a derivative is served for the key
// forever regardless of later changes to the source.
package derivative

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// StylesDir is the directory, below an output root, holding derivatives.
const StylesDir = "image-styles"

// styleSeparator joins the source basename and the style name.
const styleSeparator = "--"

// Key identifies one derivative. An empty Style means the unstyled source.
type Key struct {
	Source string
	Style  string
}

// Query renders the key in registry form: "/a/b.jpg" or "/a/b.jpg?style=s".
func (k Key) Query() string {
	if k.Style == "" {
		return k.Source
	}
	return k.Source + "?style=" + url.QueryEscape(k.Style)
}

func (k Key) String() string { return k.Query() }

// ParseQuery parses a registry entry of the form "path[?query]". Only the
// style parameter is kept.
func ParseQuery(entry string) (Key, error) {
	p, rawQuery, _ := strings.Cut(entry, "?")
	k := Key{Source: p}
	if rawQuery == "" {
		return k, nil
	}
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return k, err
	}
	k.Style = q.Get("style")
	return k, nil
}

// cleanSource normalises a request-relative source path to a rooted slash
// path with no ".." elements.
func cleanSource(source string) string {
	return path.Clean("/" + filepath.ToSlash(source))
}

// TargetPath returns where the derivative of source for styleName lives below
// root. It performs no I/O.
//
//	TargetPath("/photos/cat.jpg", "", "dist")      == "dist/photos/cat.jpg"
//	TargetPath("/photos/cat.jpg", "small", "dist") == "dist/image-styles/photos/cat--small.jpg"
func TargetPath(source, styleName, root string) string {
	source = cleanSource(source)
	dir := path.Dir(source)
	ext := path.Ext(source)
	base := strings.TrimSuffix(path.Base(source), ext)

	if styleName == "" {
		return filepath.Join(root, filepath.FromSlash(dir), base+ext)
	}
	return filepath.Join(root, StylesDir, filepath.FromSlash(dir), base+styleSeparator+styleName+ext)
}

// GeneratePath returns the batch output path of key below root. Batch output
// keeps unstyled copies next to the styled derivatives, under StylesDir.
func GeneratePath(root string, key Key) string {
	if key.Style == "" {
		return TargetPath(key.Source, "", filepath.Join(root, StylesDir))
	}
	return TargetPath(key.Source, key.Style, root)
}

// PublicPath returns the URL path of key's batch output, relative to the
// site root and without a leading slash.
func PublicPath(key Key) string {
	return filepath.ToSlash(GeneratePath("", key))
}

// SourcePath maps a request path onto the images base directory. The request
// path cannot escape baseDir.
func SourcePath(baseDir, requestPath string) string {
	return filepath.Join(baseDir, filepath.FromSlash(cleanSource(requestPath)))
}
