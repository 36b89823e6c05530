package crop

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech4humans/sigdet/internal/detector"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 0, A: 255})
		}
	}
	return img
}

func TestNewCropper_NegativePaddingFallsBack(t *testing.T) {
	c := NewCropper(-1)
	assert.Equal(t, DefaultPadding, c.Padding)

	c = NewCropper(0)
	assert.Equal(t, 0, c.Padding)
}

func TestRegion_AppliesPadding(t *testing.T) {
	c := NewCropper(10)
	bounds := image.Rect(0, 0, 500, 500)
	box := detector.Box{Left: 100, Top: 100, Width: 50, Height: 40}

	rect := c.Region(bounds, box)
	assert.Equal(t, image.Rect(90, 90, 160, 150), rect)
}

func TestRegion_ClampsToImageBounds(t *testing.T) {
	c := NewCropper(10)
	bounds := image.Rect(0, 0, 200, 150)

	// Box at the top-left corner: padding clamps to 0.
	rect := c.Region(bounds, detector.Box{Left: 5, Top: 5, Width: 50, Height: 40})
	assert.Equal(t, image.Rect(0, 0, 65, 55), rect)

	// Box at the bottom-right corner: padding clamps to image size.
	rect = c.Region(bounds, detector.Box{Left: 160, Top: 120, Width: 50, Height: 40})
	assert.Equal(t, image.Rect(150, 110, 200, 150), rect)
}

func TestSignatures_CropSizes(t *testing.T) {
	img := testImage(500, 400)
	c := NewCropper(10)
	detections := []detector.Detection{
		{Box: detector.Box{Left: 100, Top: 100, Width: 50, Height: 40}, Score: 0.9},
	}

	crops := c.Signatures(img, detections)
	require.Len(t, crops, 1)

	b := crops[0].Image.Bounds()
	assert.Equal(t, 70, b.Dx())
	assert.Equal(t, 60, b.Dy())
	assert.InDelta(t, 0.9, crops[0].Score, 1e-9)
}

func TestSignatures_PreservesOrder(t *testing.T) {
	img := testImage(500, 400)
	c := NewCropper(0)
	detections := []detector.Detection{
		{Box: detector.Box{Left: 0, Top: 0, Width: 50, Height: 40}, Score: 0.9},
		{Box: detector.Box{Left: 200, Top: 100, Width: 30, Height: 30}, Score: 0.7},
		{Box: detector.Box{Left: 400, Top: 300, Width: 20, Height: 20}, Score: 0.5},
	}

	crops := c.Signatures(img, detections)
	require.Len(t, crops, 3)
	assert.InDelta(t, 0.9, crops[0].Score, 1e-9)
	assert.InDelta(t, 0.7, crops[1].Score, 1e-9)
	assert.InDelta(t, 0.5, crops[2].Score, 1e-9)
}

func TestSignatures_SkipsDegenerateRegions(t *testing.T) {
	img := testImage(100, 100)
	c := NewCropper(0)
	detections := []detector.Detection{
		// Entirely outside the image: clamps to zero area.
		{Box: detector.Box{Left: 500, Top: 500, Width: 50, Height: 50}, Score: 0.9},
		{Box: detector.Box{Left: 10, Top: 10, Width: 20, Height: 20}, Score: 0.8},
	}

	crops := c.Signatures(img, detections)
	require.Len(t, crops, 1)
	assert.InDelta(t, 0.8, crops[0].Score, 1e-9)
}

func TestSignatures_DoesNotMutateSource(t *testing.T) {
	img := testImage(100, 100)
	before := make([]uint8, len(img.Pix))
	copy(before, img.Pix)

	c := NewCropper(5)
	_ = c.Signatures(img, []detector.Detection{
		{Box: detector.Box{Left: 10, Top: 10, Width: 40, Height: 40}, Score: 0.9},
	})

	assert.Equal(t, before, img.Pix)
}

func TestSignatures_NilImage(t *testing.T) {
	c := NewCropper(0)
	assert.Nil(t, c.Signatures(nil, []detector.Detection{
		{Box: detector.Box{Left: 0, Top: 0, Width: 10, Height: 10}},
	}))
}

func TestSignatures_NoDetections(t *testing.T) {
	img := testImage(100, 100)
	c := NewCropper(0)
	assert.Empty(t, c.Signatures(img, nil))
}
