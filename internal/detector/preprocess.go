package detector

import (
	"errors"
	"fmt"
	"image"

	"github.com/tech4humans/sigdet/internal/onnx"
	"github.com/tech4humans/sigdet/internal/utils"
)

// Preprocess resizes an image to the model input size and normalizes it into
// a [1, 3, inputH, inputW] float32 tensor with values in [0,1]. It returns
// the tensor and the per-image scale factors that map model-space boxes back
// to original-image pixels. Scale factors belong to this image only and must
// be recomputed for every input.
func Preprocess(img image.Image, inputWidth, inputHeight int) (onnx.Tensor, ScaleFactors, error) {
	if img == nil {
		return onnx.Tensor{}, ScaleFactors{}, errors.New("input image is nil")
	}
	bounds := img.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()
	if origWidth < 1 || origHeight < 1 {
		return onnx.Tensor{}, ScaleFactors{}, fmt.Errorf("invalid image dimensions %dx%d", origWidth, origHeight)
	}

	resized, err := utils.ResizeExact(img, inputWidth, inputHeight)
	if err != nil {
		return onnx.Tensor{}, ScaleFactors{}, fmt.Errorf("failed to resize image: %w", err)
	}

	data, w, h, err := utils.NormalizeImage(resized)
	if err != nil {
		return onnx.Tensor{}, ScaleFactors{}, fmt.Errorf("failed to normalize image: %w", err)
	}

	tensor, err := onnx.NewImageTensor(data, 3, h, w)
	if err != nil {
		return onnx.Tensor{}, ScaleFactors{}, fmt.Errorf("failed to create tensor: %w", err)
	}

	sf := ScaleFactors{
		X: float64(origWidth) / float64(inputWidth),
		Y: float64(origHeight) / float64(inputHeight),
	}
	return tensor, sf, nil
}
