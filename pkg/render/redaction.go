package render

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/menta2k/noface/pkg/geometry"
	"github.com/menta2k/noface/pkg/types"
)

// Redaction blurs selected faces
type Redaction struct {
	opts Options
}

// NewRedaction creates a redaction renderer
func NewRedaction(opts Options) *Redaction {
	return &Redaction{opts: opts}
}

// Render returns a copy of img where the ellipse of every selected face is
// replaced by a blurred version of the same pixels. Everything outside the
// selected ellipses is identical to img.
func (r *Redaction) Render(img image.Image, ordinals types.OrdinalMap, sel types.Selection) (*image.NRGBA, error) {
	if sel.Empty() {
		return nil, ErrEmptySelection
	}
	for _, ordinal := range sel {
		if !ordinals.Has(ordinal) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownOrdinal, ordinal)
		}
	}

	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	// one blurred source for every region so overlaps are not blurred twice
	blurred := imaging.Blur(out, r.opts.BlurSigma)

	for _, ordinal := range sel {
		rect, err := geometry.ToPixelRect(ordinals[ordinal], w, h)
		if err != nil {
			return nil, err
		}
		if geometry.Degenerate(rect) {
			continue
		}

		mask, at := ellipseMask(rect, 0)
		draw.DrawMask(out, at, blurred, at.Min, mask, image.Point{}, draw.Over)
	}

	return out, nil
}
