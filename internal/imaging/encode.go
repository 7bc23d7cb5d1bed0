package imaging

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
)

// formats maps output extensions to encoders. WebP and SVG sources can be
// served and copied but not re-encoded.
var formats = map[string]imaging.Format{
	".jpg":  imaging.JPEG,
	".jpeg": imaging.JPEG,
	".jpe":  imaging.JPEG,
	".png":  imaging.PNG,
	".gif":  imaging.GIF,
	".tif":  imaging.TIFF,
	".tiff": imaging.TIFF,
	".bmp":  imaging.BMP,
}

// FormatForExtension returns the encoder format for a file extension
// (case-insensitive, with leading dot).
func FormatForExtension(ext string) (imaging.Format, error) {
	if f, ok := formats[strings.ToLower(ext)]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("no encoder for %q images", ext)
}

// Encode writes the canvas image to w in the format implied by ext.
func (c *Canvas) Encode(w io.Writer, ext string) error {
	return Encode(w, c.Image, ext, c.Quality)
}

// Encode writes img to w in the format implied by ext. A positive quality is
// passed to the JPEG encoder.
func Encode(w io.Writer, img image.Image, ext string, quality int) error {
	format, err := FormatForExtension(ext)
	if err != nil {
		return err
	}
	var opts []imaging.EncodeOption
	if quality > 0 {
		opts = append(opts, imaging.JPEGQuality(quality))
	}
	if err := imaging.Encode(w, img, format, opts...); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}
