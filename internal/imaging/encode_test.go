package imaging

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func TestFormatForExtension(t *testing.T) {
	tests := []struct {
		ext     string
		want    imaging.Format
		wantErr bool
	}{
		{".jpg", imaging.JPEG, false},
		{".JPEG", imaging.JPEG, false},
		{".jpe", imaging.JPEG, false},
		{".png", imaging.PNG, false},
		{".gif", imaging.GIF, false},
		{".tiff", imaging.TIFF, false},
		{".bmp", imaging.BMP, false},
		{".webp", 0, true},
		{".svg", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := FormatForExtension(tt.ext)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatForExtension(%q) error = %v, wantErr %v", tt.ext, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("FormatForExtension(%q): got %v, want %v", tt.ext, got, tt.want)
		}
	}
}

func TestCanvas_EncodeRoundTrip(t *testing.T) {
	for _, ext := range []string{".png", ".jpg", ".gif"} {
		t.Run(ext, func(t *testing.T) {
			c := NewCanvas(solidImage(24, 16, color.NRGBA{0, 0, 255, 255}))
			c.Quality = 90

			var buf bytes.Buffer
			if err := c.Encode(&buf, ext); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			img, err := imaging.Decode(&buf)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			size := img.Bounds().Size()
			if size.X != 24 || size.Y != 16 {
				t.Errorf("dimensions: got %dx%d, want 24x16", size.X, size.Y)
			}
		})
	}
}

func TestEncode_QualityAffectsJPEGSize(t *testing.T) {
	img := bandedImage(64, 64)
	// Noise makes the quality difference visible in the output size.
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if (x*7+y*13)%5 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{uint8(x * 4), uint8(y * 4), 128, 255})
			}
		}
	}

	var low, high bytes.Buffer
	if err := Encode(&low, img, ".jpg", 10); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := Encode(&high, img, ".jpg", 100); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if low.Len() >= high.Len() {
		t.Errorf("quality 10 (%d bytes) should be smaller than quality 100 (%d bytes)", low.Len(), high.Len())
	}
}

func TestEncode_Unsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, solidImage(1, 1, color.White), ".webp", 0); err == nil {
		t.Error("encoding webp should fail")
	}
}
