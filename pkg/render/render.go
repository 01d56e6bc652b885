// Package render turns detection results into derived images: a numbered
// reference image for choosing faces and a redacted copy with the chosen
// faces blurred. Renderers never modify the source image.
package render

import (
	"errors"
	"image/color"
	"math"
)

var (
	// ErrNoFaces is returned when a reference is requested for an empty detection
	ErrNoFaces = errors.New("no faces to render")

	// ErrEmptySelection is returned when a redaction is requested with no ordinals
	ErrEmptySelection = errors.New("empty selection")

	// ErrUnknownOrdinal is returned when a selected ordinal is missing from the ordinal map
	ErrUnknownOrdinal = errors.New("ordinal not present in map")

	// ErrFont is returned when the label font cannot be loaded or sized
	ErrFont = errors.New("label font unavailable")
)

// Marker colors
var (
	TintColor    = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
	OutlineColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	LabelColor   = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
	BorderColor  = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	FooterColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Options holds rendering parameters
type Options struct {
	// Opacity of the ellipse tint in [0,1]
	Opacity float64
	// BlurSigma is the Gaussian sigma used for redaction
	BlurSigma float64
	// LabelScale sets the label font size relative to the face pixel height
	LabelScale float64
	// FontFile is an optional TTF/OTF path; the embedded Go Bold face is used when empty
	FontFile string
}

// DefaultOptions returns the stock rendering parameters
func DefaultOptions() Options {
	return Options{
		Opacity:    0.35,
		BlurSigma:  20,
		LabelScale: 0.3,
	}
}

func (o Options) tint() color.NRGBA {
	c := TintColor
	c.A = uint8(math.Round(255 * clamp(o.Opacity, 0, 1)))
	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
