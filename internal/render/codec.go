package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	// Frame formats beyond the stdlib decoders.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	_ "image/jpeg"
)

// FrameExtensions lists the image file extensions the drivers pick up.
var FrameExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}

// IsFrameFile reports whether name has a supported image extension.
func IsFrameFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range FrameExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// DecodeFrame decodes a camera frame in any registered format.
func DecodeFrame(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("decoded %s frame is empty", format)
	}
	return img, nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
