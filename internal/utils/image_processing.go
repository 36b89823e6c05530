package utils

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// ResizeExact resizes an image to exactly width x height without preserving
// aspect ratio, matching the resize the detection model was trained with.
func ResizeExact(img image.Image, width, height int) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("input image is nil")}
	}
	if width <= 0 || height <= 0 {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("target dimensions must be positive")}
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("zero-dimension image")}
	}
	return imaging.Resize(img, width, height, imaging.Linear), nil
}

// NormalizeImage converts an image into a float32 NCHW tensor:
// - RGB channels (alpha dropped)
// - pixel values scaled from 0-255 to 0-1
// - layout [1, 3, height, width], channel-first.
func NormalizeImage(img image.Image) ([]float32, int, int, error) {
	if img == nil {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("input image is nil")}
	}

	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("invalid image dimensions")}
	}

	tensor := make([]float32, 3*height*width)
	plane := height * width
	for y := range height {
		for x := range width {
			r, g, b, _ := nrgba.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			idx := y*width + x
			tensor[idx] = float32(r>>8) / 255.0
			tensor[plane+idx] = float32(g>>8) / 255.0
			tensor[2*plane+idx] = float32(b>>8) / 255.0
		}
	}
	return tensor, width, height, nil
}
