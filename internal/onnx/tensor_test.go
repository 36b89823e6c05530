package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageTensor(t *testing.T) {
	data := make([]float32, 3*4*5)
	tensor, err := NewImageTensor(data, 3, 4, 5)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3, 4, 5}, tensor.Shape)
	assert.Len(t, tensor.Data, 60)
}

func TestNewImageTensor_Errors(t *testing.T) {
	_, err := NewImageTensor(nil, 3, 4, 5)
	assert.Error(t, err)

	_, err = NewImageTensor(make([]float32, 10), 3, 4, 5)
	assert.Error(t, err)
}

func TestValidateNCHW(t *testing.T) {
	assert.NoError(t, ValidateNCHW([]int64{1, 3, 640, 640}))
	assert.Error(t, ValidateNCHW([]int64{1, 3, 640}))
	assert.Error(t, ValidateNCHW([]int64{1, 3, 0, 640}))
	assert.Error(t, ValidateNCHW([]int64{1, 3, -1, 640}))
}

func TestVerifyImageTensor(t *testing.T) {
	tensor := Tensor{Data: make([]float32, 12), Shape: []int64{1, 3, 2, 2}}
	assert.NoError(t, VerifyImageTensor(tensor))

	tensor.Data = tensor.Data[:10]
	assert.Error(t, VerifyImageTensor(tensor))
}

func TestValidateDetectionOutput(t *testing.T) {
	data := make([]float32, 5*100)
	classes, candidates, err := ValidateDetectionOutput(data, []int64{1, 5, 100})
	require.NoError(t, err)
	assert.Equal(t, 1, classes)
	assert.Equal(t, 100, candidates)
}

func TestValidateDetectionOutput_MultiClass(t *testing.T) {
	data := make([]float32, 7*50)
	classes, candidates, err := ValidateDetectionOutput(data, []int64{1, 7, 50})
	require.NoError(t, err)
	assert.Equal(t, 3, classes)
	assert.Equal(t, 50, candidates)
}

func TestValidateDetectionOutput_Errors(t *testing.T) {
	data := make([]float32, 10)

	_, _, err := ValidateDetectionOutput(data, []int64{5, 2})
	assert.Error(t, err, "wrong rank")

	_, _, err = ValidateDetectionOutput(data, []int64{2, 5, 1})
	assert.Error(t, err, "batch != 1")

	_, _, err = ValidateDetectionOutput(data, []int64{1, 4, 10})
	assert.Error(t, err, "too few attributes")

	_, _, err = ValidateDetectionOutput(make([]float32, 3), []int64{1, 5, 10})
	assert.Error(t, err, "data length mismatch")
}

func TestTensorStats(t *testing.T) {
	minV, maxV, mean := TensorStats([]float32{1, 2, 3, 4})
	assert.Equal(t, float32(1), minV)
	assert.Equal(t, float32(4), maxV)
	assert.InDelta(t, 2.5, float64(mean), 1e-6)

	minV, maxV, mean = TensorStats(nil)
	assert.Zero(t, minV)
	assert.Zero(t, maxV)
	assert.Zero(t, mean)
}
