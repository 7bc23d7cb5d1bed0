package imaging

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// OpFunc applies one primitive operation to the canvas. Operations replace
// c.Image with a new image; they never modify the image they read.
type OpFunc func(c *Canvas, args []string) error

// Operations is a registry of named primitive operations. New operations can
// be registered without touching style expansion or pipeline execution.
// It is safe for concurrent use.
type Operations struct {
	mu  sync.RWMutex
	ops map[string]OpFunc
}

// NewOperations returns an empty registry.
func NewOperations() *Operations {
	return &Operations{ops: make(map[string]OpFunc)}
}

// DefaultOperations returns a registry holding every built-in operation.
func DefaultOperations() *Operations {
	o := NewOperations()
	o.Register("gravity", opGravity)
	o.Register("background", opBackground)
	o.Register("quality", opQuality)
	o.Register("resize", opResize)
	o.Register("extent", opExtent)
	o.Register("crop", opCrop)
	o.Register("rotate", opRotate)
	o.Register("flip", opFlip)
	o.Register("flop", opFlop)
	o.Register("blur", opBlur)
	o.Register("sharpen", opSharpen)
	o.Register("brightness", opBrightness)
	o.Register("contrast", opContrast)
	o.Register("grayscale", opGrayscale)
	return o
}

// Register adds or replaces the operation called name.
func (o *Operations) Register(name string, fn OpFunc) {
	o.mu.Lock()
	o.ops[name] = fn
	o.mu.Unlock()
}

// Lookup returns the operation called name.
func (o *Operations) Lookup(name string) (OpFunc, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	fn, ok := o.ops[name]
	return fn, ok
}

// Names returns the registered operation names, sorted.
func (o *Operations) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.ops))
	for name := range o.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func wantArgs(args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return fmt.Errorf("expects %d arguments, got %d", min, len(args))
		}
		return fmt.Errorf("expects %d to %d arguments, got %d", min, max, len(args))
	}
	return nil
}

// gravity|<name>
func opGravity(c *Canvas, args []string) error {
	if err := wantArgs(args, 1, 1); err != nil {
		return err
	}
	a, err := ParseGravity(args[0])
	if err != nil {
		return err
	}
	c.Gravity = a
	return nil
}

// background|<#rrggbb|transparent>
func opBackground(c *Canvas, args []string) error {
	if err := wantArgs(args, 1, 1); err != nil {
		return err
	}
	v := strings.TrimSpace(args[0])
	if strings.EqualFold(v, "none") || strings.EqualFold(v, "transparent") {
		c.Background = color.Transparent
		return nil
	}
	if !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	col, err := colorful.Hex(v)
	if err != nil {
		return fmt.Errorf("invalid background color %q", args[0])
	}
	c.Background = col
	return nil
}

// quality|<1-100>
func opQuality(c *Canvas, args []string) error {
	if err := wantArgs(args, 1, 1); err != nil {
		return err
	}
	q, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || q < 1 || q > 100 {
		return fmt.Errorf("invalid quality %q: must be between 1 and 100", args[0])
	}
	c.Quality = q
	return nil
}

// resize|<width>|<height>[flag]
func opResize(c *Canvas, args []string) error {
	if err := wantArgs(args, 1, 2); err != nil {
		return err
	}
	height := ""
	if len(args) == 2 {
		height = args[1]
	}
	g, err := ParseGeometry(args[0], height)
	if err != nil {
		return err
	}
	size := c.Size()
	w, h := g.Apply(size.X, size.Y)
	if w == size.X && h == size.Y {
		return nil
	}
	c.Image = imaging.Resize(c.Image, w, h, imaging.Lanczos)
	return nil
}

// extent|<width>|<height>[|<x offset>|<y offset>]
//
// Places the image on a width x height canvas filled with the background
// color, positioned by gravity. A non-zero offset is the canvas coordinate
// the image's gravity point is pinned to on that axis; a zero or missing
// offset keeps the plain gravity placement. With Center gravity,
// extent|w|h|+0|+h/2 therefore centers the image on both axes.
//
// The position is clamped so that an image larger than the canvas always
// covers it and a smaller one stays inside it.
func opExtent(c *Canvas, args []string) error {
	if err := wantArgs(args, 2, 4); err != nil {
		return err
	}
	w, h, err := parseSize(args[0], args[1])
	if err != nil {
		return err
	}
	off, err := offsets(args[2:])
	if err != nil {
		return err
	}

	size := c.Size()
	pos := anchorOffset(c.Gravity, image.Pt(w, h), size)
	point := anchorOffset(c.Gravity, size, image.Point{})
	if off.X != 0 {
		pos.X = off.X - point.X
	}
	if off.Y != 0 {
		pos.Y = off.Y - point.Y
	}
	pos.X = clampBetween(pos.X, 0, w-size.X)
	pos.Y = clampBetween(pos.Y, 0, h-size.Y)

	dst := imaging.New(w, h, c.Background)
	c.Image = imaging.Paste(dst, c.Image, pos)
	return nil
}

// crop|<width>|<height>[|<x offset>|<y offset>]
//
// Cuts a width x height region positioned by gravity, then shifted by the
// offsets. The region is intersected with the image bounds.
func opCrop(c *Canvas, args []string) error {
	if err := wantArgs(args, 2, 4); err != nil {
		return err
	}
	w, h, err := parseSize(args[0], args[1])
	if err != nil {
		return err
	}
	off, err := offsets(args[2:])
	if err != nil {
		return err
	}

	bounds := c.Image.Bounds()
	pos := anchorOffset(c.Gravity, bounds.Size(), image.Pt(w, h)).Add(off).Add(bounds.Min)
	rect := image.Rectangle{Min: pos, Max: pos.Add(image.Pt(w, h))}.Intersect(bounds)
	if rect.Empty() {
		return fmt.Errorf("crop region %v outside image bounds %v", rect, bounds)
	}
	c.Image = imaging.Crop(c.Image, rect)
	return nil
}

func offsets(args []string) (image.Point, error) {
	var p image.Point
	var err error
	if len(args) > 0 {
		if p.X, err = ParseOffset(args[0]); err != nil {
			return p, err
		}
	}
	if len(args) > 1 {
		if p.Y, err = ParseOffset(args[1]); err != nil {
			return p, err
		}
	}
	return p, nil
}

// rotate|<degrees clockwise>
func opRotate(c *Canvas, args []string) error {
	if err := wantArgs(args, 1, 1); err != nil {
		return err
	}
	deg, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
	if err != nil {
		return fmt.Errorf("invalid angle %q", args[0])
	}
	// imaging rotates counter-clockwise.
	c.Image = imaging.Rotate(c.Image, -deg, c.Background)
	return nil
}

// flip mirrors vertically.
func opFlip(c *Canvas, args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	c.Image = imaging.FlipV(c.Image)
	return nil
}

// flop mirrors horizontally.
func opFlop(c *Canvas, args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	c.Image = imaging.FlipH(c.Image)
	return nil
}

// blur|<radius>
func opBlur(c *Canvas, args []string) error {
	if err := wantArgs(args, 1, 1); err != nil {
		return err
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
	if err != nil || r <= 0 {
		return fmt.Errorf("invalid blur radius %q", args[0])
	}
	c.Image = blur.Gaussian(c.Image, r)
	return nil
}

func opSharpen(c *Canvas, args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	c.Image = effect.Sharpen(c.Image)
	return nil
}

// brightness|<-100..100>
func opBrightness(c *Canvas, args []string) error {
	change, err := percentArg(args)
	if err != nil {
		return err
	}
	c.Image = adjust.Brightness(c.Image, change)
	return nil
}

// contrast|<-100..100>
func opContrast(c *Canvas, args []string) error {
	change, err := percentArg(args)
	if err != nil {
		return err
	}
	c.Image = adjust.Contrast(c.Image, change)
	return nil
}

func percentArg(args []string) (float64, error) {
	if err := wantArgs(args, 1, 1); err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(args[0]), "%"), 64)
	if err != nil || v < -100 || v > 100 {
		return 0, fmt.Errorf("invalid percentage %q: must be between -100 and 100", args[0])
	}
	return v / 100, nil
}

func opGrayscale(c *Canvas, args []string) error {
	if err := wantArgs(args, 0, 0); err != nil {
		return err
	}
	c.Image = effect.Grayscale(c.Image)
	return nil
}
