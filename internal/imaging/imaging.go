// Package imaging normalizes raw page images for PDF assembly: decode,
// integrity validation, dimension clamping, high-quality resize, and
// JPEG re-encoding with fixed resolution metadata. Pure and stateless;
// no I/O beyond the buffers it is given.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension is the hard per-axis pixel ceiling. JPEG caps
	// dimensions at 65535; staying at 65500 matches the reference
	// toolchain limit.
	MaxDimension = 65500

	// MinDimension is the per-axis floor (4 points at 72 DPI).
	MinDimension = 4

	// DefaultPreferredWidth is the target page width in pixels.
	DefaultPreferredWidth = 1600

	// DefaultJPEGQuality is the re-encode quality.
	DefaultJPEGQuality = 90
)

var (
	// ErrDecode indicates the payload is not a structurally valid image.
	ErrDecode = errors.New("image decode failed")

	// ErrInvalidDimensions indicates a zero source dimension.
	ErrInvalidDimensions = errors.New("invalid image dimensions")
)

// Image is a normalized, encoded page image. It exists only transiently
// inside the acquisition pipeline before assembly.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// Normalizer holds the tunable normalization parameters.
type Normalizer struct {
	preferredWidth int
	quality        int
}

// New creates a Normalizer. Non-positive arguments fall back to defaults.
func New(preferredWidth, quality int) *Normalizer {
	if preferredWidth <= 0 {
		preferredWidth = DefaultPreferredWidth
	}
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	return &Normalizer{preferredWidth: preferredWidth, quality: quality}
}

// Normalize decodes raw, validates it, resizes it to the clamped target
// dimensions, and re-encodes it as JPEG with 72 DPI density metadata.
func (n *Normalizer) Normalize(raw []byte) (Image, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return Image{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, bounds.Dx(), bounds.Dy())
	}

	width, height := targetSize(bounds.Dx(), bounds.Dy(), n.preferredWidth)

	// Scaling into an RGBA canvas also flattens palette and alpha
	// sources to a plain three-channel model for JPEG.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: n.quality}); err != nil {
		return Image{}, fmt.Errorf("jpeg encode: %w", err)
	}

	return Image{
		Data:   withDensity(buf.Bytes()),
		Width:  width,
		Height: height,
	}, nil
}

// targetSize derives output dimensions from the preferred width while
// preserving aspect ratio, then applies the two-pass clamp: a
// height-driven correction, then a width-driven correction, then the
// floor. The order is load-bearing for extreme aspect ratios.
func targetSize(srcW, srcH, preferredWidth int) (int, int) {
	width := preferredWidth
	height := int(float64(srcH) * float64(preferredWidth) / float64(srcW))

	if height > MaxDimension {
		width = int(float64(srcW) * float64(MaxDimension) / float64(srcH))
		height = MaxDimension
	}

	if width > MaxDimension {
		width = MaxDimension
		height = int(float64(srcH) * float64(MaxDimension) / float64(srcW))
	}

	width = clamp(width, MinDimension, MaxDimension)
	height = clamp(height, MinDimension, MaxDimension)
	return width, height
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// jfifAPP0 is a JFIF application segment declaring 72x72 dots-per-inch
// density. The standard library encoder emits no APP0, so one is
// inserted to pin the physical page size at assembly time.
var jfifAPP0 = []byte{
	0xFF, 0xE0, // APP0 marker
	0x00, 0x10, // segment length (16)
	'J', 'F', 'I', 'F', 0x00,
	0x01, 0x02, // JFIF version 1.02
	0x01,       // density units: dots per inch
	0x00, 0x48, // X density: 72
	0x00, 0x48, // Y density: 72
	0x00, 0x00, // no thumbnail
}

// withDensity inserts the JFIF density segment directly after the SOI
// marker. Input that is not a bare SOI-prefixed JPEG is returned as-is.
func withDensity(jpg []byte) []byte {
	if len(jpg) < 4 || jpg[0] != 0xFF || jpg[1] != 0xD8 {
		return jpg
	}
	if jpg[2] == 0xFF && jpg[3] == 0xE0 {
		return jpg // already carries an APP0
	}

	out := make([]byte, 0, len(jpg)+len(jfifAPP0))
	out = append(out, jpg[:2]...)
	out = append(out, jfifAPP0...)
	out = append(out, jpg[2:]...)
	return out
}
