package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

// EncodedImage is an image encoded for embedding in a JSON document.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

var formatMIME = map[imaging.Format]string{
	imaging.JPEG: "image/jpeg",
	imaging.PNG:  "image/png",
	imaging.GIF:  "image/gif",
	imaging.TIFF: "image/tiff",
	imaging.BMP:  "image/bmp",
}

// EncodeBase64 encodes the canvas in the format implied by ext, optionally
// scaled by scale (1 or 0 keeps the size), and returns it base64 encoded.
func (c *Canvas) EncodeBase64(ext string, scale float64) (*EncodedImage, error) {
	format, err := FormatForExtension(ext)
	if err != nil {
		return nil, err
	}

	img := c.Image
	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(img.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(img.Bounds().Dy())*scale))
		img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, ext, c.Quality); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    formatMIME[format],
	}, nil
}
