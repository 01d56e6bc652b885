package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/noface/pkg/geometry"
	"github.com/menta2k/noface/pkg/processing"
	"github.com/menta2k/noface/pkg/types"
)

// createTestImage creates a 1px checkerboard; any blur changes every pixel of it
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

var threeFaces = types.DetectionResult{Faces: []types.FaceBox{
	{Left: 0.05, Top: 0.1, Width: 0.25, Height: 0.4},
	{Left: 0.4, Top: 0.2, Width: 0.2, Height: 0.5},
	{Left: 0.7, Top: 0.5, Width: 0.25, Height: 0.4},
}}

func pixelRects(t *testing.T, faces []types.FaceBox, w, h int) []types.PixelRect {
	t.Helper()
	rects := make([]types.PixelRect, 0, len(faces))
	for _, f := range faces {
		r, err := geometry.ToPixelRect(f, w, h)
		require.NoError(t, err)
		rects = append(rects, r)
	}
	return rects
}

// ellipseDistance is < 1 for pixel centers inside the inscribed ellipse
func ellipseDistance(r types.PixelRect, x, y int) float64 {
	cx, cy := (r.Left+r.Right)/2, (r.Top+r.Bottom)/2
	rx, ry := r.Width()/2, r.Height()/2
	dx := (float64(x) + 0.5 - cx) / rx
	dy := (float64(y) + 0.5 - cy) / ry
	return dx*dx + dy*dy
}

func insideRect(r types.PixelRect, x, y, margin int) bool {
	b := geometry.ImageRect(r).Inset(-margin)
	return image.Pt(x, y).In(b)
}

func TestReferenceRenderOrdinalMap(t *testing.T) {
	ref, err := NewReference(DefaultOptions())
	require.NoError(t, err)

	src := createTestImage(120, 90)
	out, ordinals, err := ref.Render(src, threeFaces)
	require.NoError(t, err)

	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, []int{1, 2, 3}, ordinals.Keys())
	for i, face := range threeFaces.Faces {
		assert.Equal(t, face, ordinals[i+1])
	}
}

func TestReferenceRenderLeavesSourceUntouched(t *testing.T) {
	ref, err := NewReference(DefaultOptions())
	require.NoError(t, err)

	src := createTestImage(120, 90)
	before := append([]uint8(nil), src.Pix...)

	out, _, err := ref.Render(src, threeFaces)
	require.NoError(t, err)

	assert.Equal(t, before, src.Pix)
	assert.NotEqual(t, src.Pix, out.Pix)
}

func TestReferenceRenderTintsFaces(t *testing.T) {
	ref, err := NewReference(DefaultOptions())
	require.NoError(t, err)

	src := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	det := types.DetectionResult{Faces: []types.FaceBox{{Left: 0.25, Top: 0.5, Width: 0.5, Height: 0.4}}}

	out, _, err := ref.Render(src, det)
	require.NoError(t, err)

	// center of the ellipse: white under a 35% red tint
	c := out.NRGBAAt(100, 140)
	assert.Equal(t, uint8(255), c.R)
	assert.InDelta(t, 255*0.65, float64(c.G), 2)
	assert.InDelta(t, 255*0.65, float64(c.B), 2)

	// far corner stays untouched
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(199, 199))
}

func TestReferenceRenderIsDeterministic(t *testing.T) {
	ref, err := NewReference(DefaultOptions())
	require.NoError(t, err)

	src := createTestImage(120, 90)
	out1, map1, err := ref.Render(src, threeFaces)
	require.NoError(t, err)
	out2, map2, err := ref.Render(src, threeFaces)
	require.NoError(t, err)

	assert.Equal(t, map1, map2)
	assert.Equal(t, out1.Pix, out2.Pix)
}

func TestReferenceRenderRejectsEmptyDetection(t *testing.T) {
	ref, err := NewReference(DefaultOptions())
	require.NoError(t, err)

	_, _, err = ref.Render(createTestImage(10, 10), types.DetectionResult{})
	assert.ErrorIs(t, err, ErrNoFaces)
}

func TestNewReferenceFailsOnMissingFont(t *testing.T) {
	opts := DefaultOptions()
	opts.FontFile = filepath.Join(t.TempDir(), "missing.ttf")

	_, err := NewReference(opts)
	assert.ErrorIs(t, err, ErrFont)
}

func TestNewReferenceFailsOnCorruptFont(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ttf")
	require.NoError(t, os.WriteFile(path, []byte("not a font"), 0o644))

	opts := DefaultOptions()
	opts.FontFile = path

	_, err := NewReference(opts)
	assert.ErrorIs(t, err, ErrFont)
}

func TestRedactionRenderAll(t *testing.T) {
	red := NewRedaction(DefaultOptions())
	src := createTestImage(120, 90)
	before := append([]uint8(nil), src.Pix...)

	ordinals := types.NewOrdinalMap(threeFaces.Faces)
	out, err := red.Render(src, ordinals, types.Selection(ordinals.Keys()))
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix, "source must not be modified")

	rects := pixelRects(t, threeFaces.Faces, 120, 90)
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			inside, near := false, false
			for _, r := range rects {
				if ellipseDistance(r, x, y) < 0.6 {
					inside = true
				}
				if insideRect(r, x, y, 1) {
					near = true
				}
			}
			switch {
			case inside:
				assert.NotEqual(t, src.NRGBAAt(x, y), out.NRGBAAt(x, y), "pixel %d,%d not redacted", x, y)
			case !near:
				assert.Equal(t, src.NRGBAAt(x, y), out.NRGBAAt(x, y), "pixel %d,%d changed", x, y)
			}
		}
	}
}

func TestRedactionRenderSingleFace(t *testing.T) {
	red := NewRedaction(DefaultOptions())
	src := createTestImage(120, 90)

	ordinals := types.NewOrdinalMap(threeFaces.Faces)
	out, err := red.Render(src, ordinals, types.Selection{2})
	require.NoError(t, err)

	rects := pixelRects(t, threeFaces.Faces, 120, 90)
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			if insideRect(rects[0], x, y, 0) || insideRect(rects[2], x, y, 0) {
				require.Equal(t, src.NRGBAAt(x, y), out.NRGBAAt(x, y), "face 1/3 pixel %d,%d changed", x, y)
			}
			if ellipseDistance(rects[1], x, y) < 0.6 {
				require.NotEqual(t, src.NRGBAAt(x, y), out.NRGBAAt(x, y), "face 2 pixel %d,%d not redacted", x, y)
			}
		}
	}
}

func TestRedactionRenderOverlapUsesSingleBlur(t *testing.T) {
	red := NewRedaction(DefaultOptions())
	src := createTestImage(80, 80)

	same := types.FaceBox{Left: 0.2, Top: 0.2, Width: 0.6, Height: 0.6}
	ordinals := types.NewOrdinalMap([]types.FaceBox{same, same})

	once, err := red.Render(src, ordinals, types.Selection{1})
	require.NoError(t, err)
	twice, err := red.Render(src, ordinals, types.Selection{1, 2})
	require.NoError(t, err)

	// the center is fully covered by both masks; a second pass must not blur again
	a, b := once.NRGBAAt(40, 40), twice.NRGBAAt(40, 40)
	assert.InDelta(t, float64(a.R), float64(b.R), 1)
	assert.InDelta(t, float64(a.G), float64(b.G), 1)
	assert.InDelta(t, float64(a.B), float64(b.B), 1)
}

func TestRedactionRenderErrors(t *testing.T) {
	red := NewRedaction(DefaultOptions())
	src := createTestImage(20, 20)
	ordinals := types.NewOrdinalMap(threeFaces.Faces)

	_, err := red.Render(src, ordinals, nil)
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = red.Render(src, ordinals, types.Selection{4})
	assert.ErrorIs(t, err, ErrUnknownOrdinal)
}

func TestFramerFrame(t *testing.T) {
	f, err := NewFramer(24, "noface.photo", "")
	require.NoError(t, err)
	f.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }

	src := createTestImage(100, 60)
	out, err := f.Frame(src)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 148, 108), out.Bounds())

	// top-left corner is border, image starts at the border offset
	r, g, b, _ := out.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b})
	assert.Equal(t, color.NRGBAModel.Convert(src.At(0, 0)), color.NRGBAModel.Convert(out.At(24, 24)))
}

func TestFramerDisabled(t *testing.T) {
	f, err := NewFramer(0, "", "")
	require.NoError(t, err)

	src := createTestImage(10, 10)
	out, err := f.Frame(src)
	require.NoError(t, err)
	assert.Same(t, src, out)
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "abc-reference.jpg", ArtifactName("abc", ReferenceSuffix, "jpeg"))
	assert.Equal(t, "abc-blurried.png", ArtifactName("abc", RedactionSuffix, "png"))
}

func TestStoreSave(t *testing.T) {
	framer, err := NewFramer(8, "", "")
	require.NoError(t, err)
	store := NewStore(processing.NewProcessor(), framer, 90)
	dir := t.TempDir()

	path, err := store.Save(createTestImage(30, 20), dir, "photo1", ReferenceSuffix, "png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "photo1-reference.png"), path)

	saved, err := processing.NewProcessor().LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 46, 36), saved.Bounds())
}

func BenchmarkReferenceRender(b *testing.B) {
	ref, err := NewReference(DefaultOptions())
	if err != nil {
		b.Fatal(err)
	}
	src := createTestImage(1280, 960)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = ref.Render(src, threeFaces)
	}
}

func BenchmarkRedactionRender(b *testing.B) {
	red := NewRedaction(DefaultOptions())
	src := createTestImage(1280, 960)
	ordinals := types.NewOrdinalMap(threeFaces.Faces)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = red.Render(src, ordinals, types.Selection{1, 2, 3})
	}
}
