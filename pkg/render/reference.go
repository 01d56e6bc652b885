package render

import (
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/menta2k/noface/pkg/geometry"
	"github.com/menta2k/noface/pkg/types"
)

// Reference draws numbered markers over detected faces
type Reference struct {
	opts  Options
	fonts *fontSet
}

// NewReference creates a reference renderer. It fails when the label font
// cannot be loaded: an unlabeled reference is useless for picking faces.
func NewReference(opts Options) (*Reference, error) {
	fonts, err := loadFont(opts.FontFile)
	if err != nil {
		return nil, err
	}
	return &Reference{opts: opts, fonts: fonts}, nil
}

// Render returns an annotated copy of img and the ordinal map numbering the faces
// 1..N in detection order. img itself is left untouched.
func (r *Reference) Render(img image.Image, det types.DetectionResult) (*image.NRGBA, types.OrdinalMap, error) {
	if det.Count() == 0 {
		return nil, nil, ErrNoFaces
	}

	canvas := imaging.Clone(img)
	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	stroke := math.Max(2, 0.004*float64(minInt(w, h)))

	tint := image.NewUniform(r.opts.tint())
	outline := image.NewUniform(OutlineColor)

	ordinals := types.NewOrdinalMap(det.Faces)
	for _, ordinal := range ordinals.Keys() {
		rect, err := geometry.ToPixelRect(ordinals[ordinal], w, h)
		if err != nil {
			return nil, nil, err
		}

		if !geometry.Degenerate(rect) {
			fill, at := ellipseMask(rect, 0)
			draw.DrawMask(canvas, at, tint, image.Point{}, fill, image.Point{}, draw.Over)

			ring, at := ellipseMask(rect, stroke)
			draw.DrawMask(canvas, at, outline, image.Point{}, ring, image.Point{}, draw.Over)
		}

		if err := r.label(canvas, rect, ordinal); err != nil {
			return nil, nil, fmt.Errorf("label %d: %w", ordinal, err)
		}
	}

	return canvas, ordinals, nil
}

// label places the ordinal above and left of the face, sized to the face height
func (r *Reference) label(canvas *image.NRGBA, rect types.PixelRect, ordinal int) error {
	face, err := r.fonts.face(rect.Height() * r.opts.LabelScale)
	if err != nil {
		return err
	}
	defer face.Close()

	x := int(math.Round(rect.Left - rect.Width()*0.1))
	top := int(math.Round(rect.Top - rect.Height()*0.4))
	drawText(canvas, face, LabelColor, strconv.Itoa(ordinal), x, top)
	return nil
}
