package detector

import (
	"errors"
	"fmt"
	"os"
)

// Reference defaults for the signature model. Thresholds are caller-tunable;
// these are starting points, not invariants.
const (
	DefaultInputWidth    = 640
	DefaultInputHeight   = 640
	DefaultConfThreshold = 0.25
	DefaultIoUThreshold  = 0.5
)

// GPUConfig controls ONNX Runtime execution provider selection.
type GPUConfig struct {
	UseGPU      bool
	DeviceID    int
	MemoryLimit uint64
}

// Config holds detector settings.
type Config struct {
	ModelPath     string
	InputWidth    int
	InputHeight   int
	Classes       []string
	ConfThreshold float64
	IoUThreshold  float64
	NumThreads    int
	GPU           GPUConfig
}

// DefaultConfig returns a single-class signature detector configuration.
// The decode/NMS path stays parametric over len(Classes).
func DefaultConfig() Config {
	return Config{
		InputWidth:    DefaultInputWidth,
		InputHeight:   DefaultInputHeight,
		Classes:       []string{"signature"},
		ConfThreshold: DefaultConfThreshold,
		IoUThreshold:  DefaultIoUThreshold,
	}
}

func validateConfig(config Config) error {
	if config.InputWidth <= 0 || config.InputHeight <= 0 {
		return fmt.Errorf("invalid model input size %dx%d", config.InputWidth, config.InputHeight)
	}
	if len(config.Classes) == 0 {
		return errors.New("at least one class name is required")
	}
	if err := validateThreshold("confidence", config.ConfThreshold); err != nil {
		return err
	}
	if err := validateThreshold("IoU", config.IoUThreshold); err != nil {
		return err
	}
	if config.NumThreads < 0 {
		return fmt.Errorf("invalid thread count: %d", config.NumThreads)
	}
	return nil
}

func validateModelFile(path string) error {
	if path == "" {
		return errors.New("model path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("model file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path is a directory: %s", path)
	}
	return nil
}
