package render

import (
	"image"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
)

// FooterTimeLayout is the timestamp layout printed in the frame footer
const FooterTimeLayout = "02/01/2006, 15:04"

// Framer wraps images in a solid border with a footer line
type Framer struct {
	border int
	footer string
	fonts  *fontSet
	now    func() time.Time
}

// NewFramer creates a framer; border <= 0 disables framing
func NewFramer(border int, footer, fontFile string) (*Framer, error) {
	fonts, err := loadFont(fontFile)
	if err != nil {
		return nil, err
	}
	return &Framer{border: border, footer: footer, fonts: fonts, now: time.Now}, nil
}

// Frame returns img surrounded by the border, with the current timestamp at
// the bottom left and the footer text at the bottom right.
func (f *Framer) Frame(img image.Image) (image.Image, error) {
	if f.border <= 0 {
		return img, nil
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	canvas := imaging.New(w+2*f.border, h+2*f.border, BorderColor)
	canvas = imaging.Paste(canvas, img, image.Pt(f.border, f.border))

	face, err := f.fonts.face(float64(f.border/2 + 1))
	if err != nil {
		return nil, err
	}
	defer face.Close()

	top := h + f.border + (f.border-face.Metrics().Height.Ceil())/2
	drawText(canvas, face, FooterColor, f.now().Format(FooterTimeLayout), f.border, top)
	if f.footer != "" {
		x := f.border + w - font.MeasureString(face, f.footer).Ceil()
		drawText(canvas, face, FooterColor, f.footer, x, top)
	}

	return canvas, nil
}
