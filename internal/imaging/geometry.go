package imaging

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Geometry flags accepted as a suffix of the resize width or height.
const (
	FlagNone      byte = 0
	FlagFill      byte = '^' // cover the box, preserving aspect ratio
	FlagExact     byte = '!' // ignore aspect ratio
	FlagShrink    byte = '>' // only shrink larger images
	FlagEnlarge   byte = '<' // only enlarge smaller images
	geometryFlags      = "^!<>"
)

// Geometry is a parsed "width|height" pair with an optional flag. A zero
// dimension means "derive from the other one".
type Geometry struct {
	Width  int
	Height int
	Flag   byte
}

// ParseGeometry parses the width and height arguments of a resize action.
// A flag may trail either argument ("160|90^").
func ParseGeometry(width, height string) (Geometry, error) {
	var g Geometry
	var err error

	w, wf := splitFlag(width)
	h, hf := splitFlag(height)
	if wf != FlagNone && hf != FlagNone && wf != hf {
		return g, fmt.Errorf("conflicting geometry flags %q and %q", wf, hf)
	}
	g.Flag = wf
	if hf != FlagNone {
		g.Flag = hf
	}

	if g.Width, err = parseDimension(w); err != nil {
		return g, fmt.Errorf("invalid width %q: %w", width, err)
	}
	if g.Height, err = parseDimension(h); err != nil {
		return g, fmt.Errorf("invalid height %q: %w", height, err)
	}
	if g.Width == 0 && g.Height == 0 {
		return g, fmt.Errorf("width and height must not both be empty")
	}
	if g.Flag == FlagExact && (g.Width == 0 || g.Height == 0) {
		return g, fmt.Errorf("exact geometry requires width and height")
	}
	return g, nil
}

func splitFlag(s string) (string, byte) {
	s = strings.TrimSpace(s)
	if s != "" && strings.IndexByte(geometryFlags, s[len(s)-1]) >= 0 {
		return s[:len(s)-1], s[len(s)-1]
	}
	return s, FlagNone
}

func parseDimension(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}

// Apply computes the output size for an image of size (w, h).
func (g Geometry) Apply(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}

	switch g.Flag {
	case FlagExact:
		return g.Width, g.Height
	case FlagShrink:
		if (g.Width == 0 || w <= g.Width) && (g.Height == 0 || h <= g.Height) {
			return w, h
		}
	case FlagEnlarge:
		if (g.Width == 0 || w >= g.Width) && (g.Height == 0 || h >= g.Height) {
			return w, h
		}
	}

	sx := float64(g.Width) / float64(w)
	sy := float64(g.Height) / float64(h)

	var scale float64
	switch {
	case g.Width == 0:
		scale = sy
	case g.Height == 0:
		scale = sx
	case g.Flag == FlagFill:
		scale = math.Max(sx, sy)
	default:
		scale = math.Min(sx, sy)
	}

	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// ParseOffset parses a signed pixel offset such as "+0", "-12" or "45".
// An empty string is zero.
func ParseOffset(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return n, nil
}

// parseSize parses a strictly positive width/height pair.
func parseSize(width, height string) (int, int, error) {
	w, err := strconv.Atoi(strings.TrimSpace(width))
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid width %q", width)
	}
	h, err := strconv.Atoi(strings.TrimSpace(height))
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid height %q", height)
	}
	return w, h, nil
}
