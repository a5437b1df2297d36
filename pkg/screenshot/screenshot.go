// Package screenshot decodes and post-processes the PNG frames the
// agent captures.
package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/nfnt/resize"
)

// Decode parses the raw PNG bytes returned by the agent. A frame that
// fails to decode is reported as a plain error; transient capture
// glitches resolve themselves on the next attempt.
func Decode(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

// Scale resizes the frame by the given factor, preserving aspect
// ratio. A factor of 1 or less than or equal to zero returns the image
// unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1 {
		return img
	}
	width := uint(float64(img.Bounds().Dx()) * factor)
	return resize.Resize(width, 0, img, resize.Lanczos3)
}

// SavePNG writes the frame to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save screenshot: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode screenshot: %w", err)
	}
	return nil
}
