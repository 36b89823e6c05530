package detector

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocess_TensorShape(t *testing.T) {
	img := solidImage(100, 80, color.White)

	tensor, _, err := Preprocess(img, 640, 640)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3, 640, 640}, tensor.Shape)
	assert.Len(t, tensor.Data, 3*640*640)
}

func TestPreprocess_ScaleFactors(t *testing.T) {
	img := solidImage(1280, 960, color.White)

	_, sf, err := Preprocess(img, 640, 640)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, sf.X, 1e-9)
	assert.InDelta(t, 1.5, sf.Y, 1e-9)
}

func TestPreprocess_ValuesNormalized(t *testing.T) {
	img := solidImage(64, 64, color.RGBA{R: 255, G: 128, B: 0, A: 255})

	tensor, _, err := Preprocess(img, 64, 64)
	require.NoError(t, err)

	for _, v := range tensor.Data {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}

	// Plane order is R, G, B. A solid image keeps plane values constant.
	plane := 64 * 64
	assert.InDelta(t, 1.0, float64(tensor.Data[0]), 0.01)
	assert.InDelta(t, 128.0/255.0, float64(tensor.Data[plane]), 0.01)
	assert.InDelta(t, 0.0, float64(tensor.Data[2*plane]), 0.01)
}

func TestPreprocess_NilImage(t *testing.T) {
	_, _, err := Preprocess(nil, 640, 640)
	assert.Error(t, err)
}

func TestPreprocess_ScaleFactorsPerImage(t *testing.T) {
	small := solidImage(320, 320, color.White)
	large := solidImage(1920, 1080, color.White)

	_, sfSmall, err := Preprocess(small, 640, 640)
	require.NoError(t, err)
	_, sfLarge, err := Preprocess(large, 640, 640)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, sfSmall.X, 1e-9)
	assert.InDelta(t, 3.0, sfLarge.X, 1e-9)
	assert.InDelta(t, 1080.0/640.0, sfLarge.Y, 1e-9)
}
