package render

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// minFontSize keeps labels legible on very small faces
const minFontSize = 8

// fontSet holds a parsed font and produces faces at arbitrary sizes
type fontSet struct {
	font *opentype.Font
}

// loadFont parses path, or the embedded Go Bold font when path is empty
func loadFont(path string) (*fontSet, error) {
	data := gobold.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFont, err)
		}
		data = b
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrFont, err)
	}
	return &fontSet{font: f}, nil
}

func (fs *fontSet) face(size float64) (font.Face, error) {
	if size < minFontSize {
		size = minFontSize
	}
	face, err := opentype.NewFace(fs.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: size %.1f: %v", ErrFont, size, err)
	}
	return face, nil
}

// drawText draws s with its top-left corner at (x, top), shifted so the text
// stays inside dst.
func drawText(dst *image.NRGBA, face font.Face, c color.Color, s string, x, top int) {
	b := dst.Bounds()
	ascent := face.Metrics().Ascent.Ceil()
	width := font.MeasureString(face, s).Ceil()

	if x+width > b.Max.X {
		x = b.Max.X - width
	}
	if x < b.Min.X {
		x = b.Min.X
	}
	if top < b.Min.Y {
		top = b.Min.Y
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, top+ascent),
	}
	d.DrawString(s)
}
