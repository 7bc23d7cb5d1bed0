package imaging

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Swatch is one entry of an image palette.
type Swatch struct {
	// Hex is the quantized colour as "#rrggbb".
	Hex string `json:"hex"`

	// Percentage of sampled pixels that quantize to this colour (0-100).
	Percentage float64 `json:"percentage"`

	// HSL holds hue in degrees, saturation and lightness in percent.
	HSL [3]int `json:"hsl"`
}

// paletteSamples bounds the work done on large images: pixels are read on a
// grid of at most this many points per axis.
const paletteSamples = 200

// Palette returns up to count dominant colours of img, most frequent first.
// Colours are quantized to 16 levels per channel so near-identical pixels
// group together. Fully transparent pixels are ignored.
func Palette(img image.Image, count int) ([]Swatch, error) {
	if count < 1 {
		return nil, fmt.Errorf("palette size must be positive, got %d", count)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image is empty")
	}

	stepX := max(1, bounds.Dx()/paletteSamples)
	stepY := max(1, bounds.Dy()/paletteSamples)

	counts := make(map[[3]uint8]int)
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			key := [3]uint8{
				uint8((r >> 8) / 16 * 16),
				uint8((g >> 8) / 16 * 16),
				uint8((b >> 8) / 16 * 16),
			}
			counts[key]++
			total++
		}
	}
	if total == 0 {
		return []Swatch{}, nil
	}

	swatches := make([]Swatch, 0, len(counts))
	for key, n := range counts {
		c := colorful.Color{R: float64(key[0]) / 255, G: float64(key[1]) / 255, B: float64(key[2]) / 255}
		h, s, l := c.Hsl()
		if math.IsNaN(h) {
			h = 0
		}
		swatches = append(swatches, Swatch{
			Hex:        c.Hex(),
			Percentage: float64(n) / float64(total) * 100,
			HSL:        [3]int{int(h), int(math.Round(s * 100)), int(math.Round(l * 100))},
		})
	}

	sort.Slice(swatches, func(i, j int) bool {
		if swatches[i].Percentage != swatches[j].Percentage {
			return swatches[i].Percentage > swatches[j].Percentage
		}
		return swatches[i].Hex < swatches[j].Hex
	})
	if len(swatches) > count {
		swatches = swatches[:count]
	}
	return swatches, nil
}
