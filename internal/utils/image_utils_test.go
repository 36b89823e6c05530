package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampInt(t *testing.T) {
	assert.Equal(t, 5, ClampInt(5, 0, 10))
	assert.Equal(t, 0, ClampInt(-3, 0, 10))
	assert.Equal(t, 10, ClampInt(42, 0, 10))
	assert.Equal(t, 0, ClampInt(0, 0, 10))
	assert.Equal(t, 10, ClampInt(10, 0, 10))
}

func TestCloneRGBA_AnchorsAtOrigin(t *testing.T) {
	// Source with a non-zero origin.
	src := image.NewRGBA(image.Rect(10, 10, 30, 25))
	src.Set(10, 10, color.RGBA{255, 0, 0, 255})

	dst := CloneRGBA(src)
	require.NotNil(t, dst)
	assert.Equal(t, image.Rect(0, 0, 20, 15), dst.Bounds())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, dst.RGBAAt(0, 0))
}

func TestCloneRGBA_IndependentOfSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	dst := CloneRGBA(src)

	dst.Set(0, 0, color.RGBA{255, 0, 0, 255})
	assert.NotEqual(t, src.RGBAAt(0, 0), dst.RGBAAt(0, 0))
}

func TestDrawRect_Outline(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 50, 50))
	red := color.RGBA{255, 0, 0, 255}

	DrawRect(dst, image.Rect(10, 10, 40, 40), red, 1)

	assert.Equal(t, red, dst.RGBAAt(10, 10), "corner on outline")
	assert.Equal(t, red, dst.RGBAAt(25, 10), "top edge")
	assert.Equal(t, red, dst.RGBAAt(10, 25), "left edge")
	assert.Equal(t, red, dst.RGBAAt(39, 39), "bottom-right inside edge")
	assert.NotEqual(t, red, dst.RGBAAt(25, 25), "interior untouched")
}

func TestDrawRect_ClipsToBounds(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	DrawRect(dst, image.Rect(-10, -10, 100, 100), color.White, 2)
	// Must not panic; edges at the image border are drawn.
	assert.NotEqual(t, color.RGBA{}, dst.RGBAAt(0, 0))
}

func TestFillRect(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	blue := color.RGBA{0, 0, 255, 255}

	FillRect(dst, image.Rect(5, 5, 10, 10), blue)

	assert.Equal(t, blue, dst.RGBAAt(5, 5))
	assert.Equal(t, blue, dst.RGBAAt(9, 9))
	assert.NotEqual(t, blue, dst.RGBAAt(10, 10))
}

func TestCropImageRect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	out := CropImageRect(src, image.Rect(10, 20, 60, 50))
	assert.Equal(t, 50, out.Bounds().Dx())
	assert.Equal(t, 30, out.Bounds().Dy())
}

func TestCropImageRect_ClampsAndHandlesEmpty(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))

	out := CropImageRect(src, image.Rect(80, 80, 200, 200))
	assert.Equal(t, 20, out.Bounds().Dx())
	assert.Equal(t, 20, out.Bounds().Dy())

	empty := CropImageRect(src, image.Rect(200, 200, 300, 300))
	assert.Zero(t, empty.Bounds().Dx())
}
