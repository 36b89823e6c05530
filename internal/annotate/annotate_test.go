package annotate

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech4humans/sigdet/internal/detector"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestDrawDetections_ReturnsCopy(t *testing.T) {
	src := whiteImage(200, 200)
	before := make([]uint8, len(src.Pix))
	copy(before, src.Pix)

	out := DrawDetections(src, []detector.Detection{
		{Box: detector.Box{Left: 50, Top: 50, Width: 80, Height: 60}, Score: 0.9},
	}, []string{"signature"})

	require.NotNil(t, out)
	assert.Equal(t, before, src.Pix, "source image must not be mutated")
	assert.NotEqual(t, src.Pix, out.Pix, "annotated copy should differ from source")
}

func TestDrawDetections_MarksBoxOutline(t *testing.T) {
	src := whiteImage(200, 200)
	box := detector.Box{Left: 50, Top: 50, Width: 80, Height: 60}

	out := DrawDetections(src, []detector.Detection{{Box: box, Score: 0.9}}, []string{"signature"})

	white := color.RGBA{255, 255, 255, 255}
	topEdge := out.RGBAAt(box.Left+10, box.Top)
	assert.NotEqual(t, white, topEdge, "box outline should change edge pixels")

	interior := out.RGBAAt(box.Left+40, box.Top+30)
	assert.Equal(t, white, interior, "box interior stays untouched")
}

func TestDrawDetections_NoDetectionsIsPlainCopy(t *testing.T) {
	src := whiteImage(50, 50)
	out := DrawDetections(src, nil, []string{"signature"})
	require.NotNil(t, out)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestDrawDetections_NilImage(t *testing.T) {
	assert.Nil(t, DrawDetections(nil, nil, nil))
}

func TestDrawDetections_BoxExceedingBounds(t *testing.T) {
	src := whiteImage(100, 100)
	// Box partially outside the image must not panic.
	out := DrawDetections(src, []detector.Detection{
		{Box: detector.Box{Left: 80, Top: 80, Width: 100, Height: 100}, Score: 0.5},
	}, []string{"signature"})
	require.NotNil(t, out)
}

func TestPalette_DistinctColors(t *testing.T) {
	colors := Palette(5)
	require.Len(t, colors, 5)

	seen := make(map[color.NRGBA]bool, len(colors))
	for _, c := range colors {
		assert.False(t, seen[c], "palette colors should be distinct")
		seen[c] = true
	}
}

func TestPalette_Empty(t *testing.T) {
	assert.Empty(t, Palette(0))
}
