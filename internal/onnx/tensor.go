package onnx

import (
	"errors"
	"fmt"
)

// Tensor represents a simple float32 tensor prepared for ONNX input.
// Data layout is row-major, with NCHW for images.
type Tensor struct {
	Data  []float32
	Shape []int64 // e.g., [N, C, H, W]
}

// NewImageTensor builds a single-image tensor with shape [1, C, H, W].
// data must be length C*H*W in NCHW order.
func NewImageTensor(data []float32, c, h, w int) (Tensor, error) {
	if data == nil {
		return Tensor{}, errors.New("nil data")
	}
	expected := c * h * w
	if len(data) != expected {
		return Tensor{}, fmt.Errorf("unexpected data length: got %d, want %d", len(data), expected)
	}
	shape := []int64{1, int64(c), int64(h), int64(w)}
	return Tensor{Data: data, Shape: shape}, nil
}

// ValidateNCHW ensures a shape is [N, C, H, W] with positive dimensions.
func ValidateNCHW(shape []int64) error {
	if len(shape) != 4 {
		return fmt.Errorf("shape rank %d != 4", len(shape))
	}
	for i, v := range shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
	}
	return nil
}

// VerifyImageTensor checks data length matches the provided NCHW shape.
func VerifyImageTensor(t Tensor) error {
	if err := ValidateNCHW(t.Shape); err != nil {
		return err
	}
	n, c, h, w := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	expected := int(n * c * h * w)
	if len(t.Data) != expected {
		return fmt.Errorf("tensor data length %d != expected %d for shape %v", len(t.Data), expected, t.Shape)
	}
	return nil
}

// ValidateDetectionOutput checks that a raw model output has the expected
// [1, 4+numClasses, numCandidates] layout and that data matches the shape.
// It returns (numClasses, numCandidates).
func ValidateDetectionOutput(data []float32, shape []int64) (int, int, error) {
	if len(shape) != 3 {
		return 0, 0, fmt.Errorf("output rank %d != 3", len(shape))
	}
	if shape[0] != 1 {
		return 0, 0, fmt.Errorf("batch dimension must be 1, got %d", shape[0])
	}
	if shape[1] < 5 {
		return 0, 0, fmt.Errorf("attribute dimension must be >= 5 (4 box values + scores), got %d", shape[1])
	}
	if shape[2] < 0 {
		return 0, 0, fmt.Errorf("candidate dimension must be >= 0, got %d", shape[2])
	}
	expected := int(shape[1] * shape[2])
	if len(data) != expected {
		return 0, 0, fmt.Errorf("output data length %d != expected %d for shape %v", len(data), expected, shape)
	}
	return int(shape[1] - 4), int(shape[2]), nil
}

// TensorStats computes min/max/mean for debug output.
func TensorStats(data []float32) (float32, float32, float32) {
	if len(data) == 0 {
		return 0, 0, 0
	}
	minVal, maxVal := data[0], data[0]
	var sum float64
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		sum += float64(v)
	}
	return minVal, maxVal, float32(sum / float64(len(data)))
}
