package render

import (
	"image"

	"golang.org/x/image/vector"

	"github.com/menta2k/noface/pkg/geometry"
	"github.com/menta2k/noface/pkg/types"
)

// kappa places cubic control points for a quarter-ellipse approximation
const kappa = 0.5522847498

// ellipseMask rasterizes the ellipse inscribed in r. The returned mask has its
// origin at bounds.Min: mask pixel (0,0) corresponds to image pixel bounds.Min.
// When stroke > 0 only a ring of that width along the edge is filled.
func ellipseMask(r types.PixelRect, stroke float64) (*image.Alpha, image.Rectangle) {
	bounds := geometry.ImageRect(r)
	w, h := bounds.Dx(), bounds.Dy()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return mask, bounds
	}

	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	cx := (r.Left+r.Right)/2 - ox
	cy := (r.Top+r.Bottom)/2 - oy
	rx := r.Width() / 2
	ry := r.Height() / 2

	z := vector.NewRasterizer(w, h)
	addEllipse(z, cx, cy, rx, ry, false)
	if stroke > 0 && rx > stroke && ry > stroke {
		// opposite winding cancels the interior
		addEllipse(z, cx, cy, rx-stroke, ry-stroke, true)
	}
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	return mask, bounds
}

func addEllipse(z *vector.Rasterizer, cx, cy, rx, ry float64, reverse bool) {
	f := func(v float64) float32 { return float32(v) }
	kx, ky := kappa*rx, kappa*ry

	z.MoveTo(f(cx+rx), f(cy))
	if !reverse {
		z.CubeTo(f(cx+rx), f(cy+ky), f(cx+kx), f(cy+ry), f(cx), f(cy+ry))
		z.CubeTo(f(cx-kx), f(cy+ry), f(cx-rx), f(cy+ky), f(cx-rx), f(cy))
		z.CubeTo(f(cx-rx), f(cy-ky), f(cx-kx), f(cy-ry), f(cx), f(cy-ry))
		z.CubeTo(f(cx+kx), f(cy-ry), f(cx+rx), f(cy-ky), f(cx+rx), f(cy))
	} else {
		z.CubeTo(f(cx+rx), f(cy-ky), f(cx+kx), f(cy-ry), f(cx), f(cy-ry))
		z.CubeTo(f(cx-kx), f(cy-ry), f(cx-rx), f(cy-ky), f(cx-rx), f(cy))
		z.CubeTo(f(cx-rx), f(cy+ky), f(cx-kx), f(cy+ry), f(cx), f(cy+ry))
		z.CubeTo(f(cx+kx), f(cy+ry), f(cx+rx), f(cy+ky), f(cx+rx), f(cy))
	}
	z.ClosePath()
}
