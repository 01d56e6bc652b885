// Package geometry projects normalized detector boxes onto pixel grids.
//
// Both the reference and the redaction renderers go through ToPixelRect so
// markers and blur masks land on the same pixels of a given source image.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/menta2k/noface/pkg/types"
)

// ErrInvalidDimensions is returned for non-positive image sizes
var ErrInvalidDimensions = errors.New("invalid image dimensions")

// ToPixelRect converts a normalized box to absolute pixel coordinates.
// Box edges are clamped to [0,1] first; detectors report boxes that
// spill past the frame for faces cut by the image border.
func ToPixelRect(box types.FaceBox, imageWidth, imageHeight int) (types.PixelRect, error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return types.PixelRect{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, imageWidth, imageHeight)
	}

	fw, fh := float64(imageWidth), float64(imageHeight)

	x0 := clamp(box.Left, 0, 1)
	y0 := clamp(box.Top, 0, 1)
	x1 := clamp(box.Left+math.Max(box.Width, 0), 0, 1)
	y1 := clamp(box.Top+math.Max(box.Height, 0), 0, 1)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}

	return types.PixelRect{
		Left:   x0 * fw,
		Top:    y0 * fh,
		Right:  x1 * fw,
		Bottom: y1 * fh,
	}, nil
}

// ImageRect returns the smallest integer rectangle covering r
func ImageRect(r types.PixelRect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Left)),
		int(math.Floor(r.Top)),
		int(math.Ceil(r.Right)),
		int(math.Ceil(r.Bottom)),
	)
}

// Degenerate reports whether the rectangle has no area
func Degenerate(r types.PixelRect) bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
