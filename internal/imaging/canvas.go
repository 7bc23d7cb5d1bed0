package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Canvas is the state a pipeline threads through its operations: the current
// image plus the settings later operations read (gravity, background, output
// quality).
type Canvas struct {
	Image      image.Image
	Gravity    imaging.Anchor
	Background color.Color

	// Quality is the JPEG encoding quality (1-100). Zero means the encoder default.
	Quality int
}

// NewCanvas wraps img with default settings: Center gravity, white background.
func NewCanvas(img image.Image) *Canvas {
	return &Canvas{
		Image:      img,
		Gravity:    imaging.Center,
		Background: color.White,
	}
}

// Size returns the current image dimensions.
func (c *Canvas) Size() image.Point {
	return c.Image.Bounds().Size()
}

// gravities maps the accepted gravity names (lower-cased) to anchors. Both the
// compass names used by ImageMagick-style configurations and the positional
// names of the imaging library are accepted.
var gravities = map[string]imaging.Anchor{
	"northwest": imaging.TopLeft,
	"north":     imaging.Top,
	"northeast": imaging.TopRight,
	"west":      imaging.Left,
	"center":    imaging.Center,
	"east":      imaging.Right,
	"southwest": imaging.BottomLeft,
	"south":     imaging.Bottom,
	"southeast": imaging.BottomRight,

	"topleft":     imaging.TopLeft,
	"top":         imaging.Top,
	"topright":    imaging.TopRight,
	"left":        imaging.Left,
	"right":       imaging.Right,
	"bottomleft":  imaging.BottomLeft,
	"bottom":      imaging.Bottom,
	"bottomright": imaging.BottomRight,
}

// ParseGravity converts a gravity name to an anchor (case-insensitive).
func ParseGravity(name string) (imaging.Anchor, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(name)))
	if a, ok := gravities[key]; ok {
		return a, nil
	}
	return imaging.Center, fmt.Errorf("unknown gravity %q", name)
}

// anchorOffset returns the top-left position of an inner box placed inside an
// outer box according to anchor. Components are negative when the inner box
// is larger than the outer one on that axis.
func anchorOffset(anchor imaging.Anchor, outer, inner image.Point) image.Point {
	dx := outer.X - inner.X
	dy := outer.Y - inner.Y

	switch anchor {
	case imaging.TopLeft:
		return image.Pt(0, 0)
	case imaging.Top:
		return image.Pt(dx/2, 0)
	case imaging.TopRight:
		return image.Pt(dx, 0)
	case imaging.Left:
		return image.Pt(0, dy/2)
	case imaging.Right:
		return image.Pt(dx, dy/2)
	case imaging.BottomLeft:
		return image.Pt(0, dy)
	case imaging.Bottom:
		return image.Pt(dx/2, dy)
	case imaging.BottomRight:
		return image.Pt(dx, dy)
	default:
		return image.Pt(dx/2, dy/2)
	}
}

// clampBetween limits v to the closed range spanned by a and b (in either order).
func clampBetween(v, a, b int) int {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
