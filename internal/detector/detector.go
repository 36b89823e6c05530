package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tech4humans/sigdet/internal/onnx"
	"github.com/yalue/onnxruntime_go"
)

// Detector runs signature detection using ONNX Runtime. A Detector holds no
// per-image state; one instance may serve concurrent callers.
type Detector struct {
	config     Config
	session    *onnxruntime_go.DynamicAdvancedSession
	inputInfo  onnxruntime_go.InputOutputInfo
	outputInfo onnxruntime_go.InputOutputInfo
	mu         sync.RWMutex
}

// NewDetector creates a new signature detector with the given configuration.
func NewDetector(config Config) (*Detector, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if err := validateModelFile(config.ModelPath); err != nil {
		return nil, err
	}

	slog.Debug("Initializing detector",
		"model_path", config.ModelPath,
		"input_size", fmt.Sprintf("%dx%d", config.InputWidth, config.InputHeight),
		"classes", len(config.Classes),
		"gpu_enabled", config.GPU.UseGPU)

	if err := onnx.InitializeEnvironment(); err != nil {
		return nil, err
	}

	inputInfo, outputInfo, err := modelInfo(config.ModelPath)
	if err != nil {
		return nil, err
	}

	session, err := createSession(config.ModelPath, inputInfo, outputInfo, config)
	if err != nil {
		return nil, err
	}

	d := &Detector{
		config:     config,
		session:    session,
		inputInfo:  inputInfo,
		outputInfo: outputInfo,
	}
	slog.Debug("Detector initialized successfully")
	return d, nil
}

// Close releases resources used by the detector.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session != nil {
		if err := d.session.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to destroy detector session: %v\n", err)
		}
		d.session = nil
	}
	return nil
}

// GetConfig returns a copy of the detector's configuration.
func (d *Detector) GetConfig() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// ClassName resolves a class id to its configured name.
func (d *Detector) ClassName(classID int) string {
	if classID >= 0 && classID < len(d.config.Classes) {
		return d.config.Classes[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

// runSession executes the model on the given input tensor and returns the
// raw output. Backend failures are wrapped with ErrBackendFailure; the
// detector never retries internally since inference is deterministic.
func (d *Detector) runSession(tensor onnx.Tensor) (RawOutput, error) {
	if err := onnx.VerifyImageTensor(tensor); err != nil {
		return RawOutput{}, fmt.Errorf("invalid tensor: %w", err)
	}

	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()
	if session == nil {
		return RawOutput{}, errors.New("detector session is nil")
	}

	inputTensor, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return RawOutput{}, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		if err := inputTensor.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying input tensor: %v\n", err)
		}
	}()

	outputs := []onnxruntime_go.Value{nil}
	if err := session.Run([]onnxruntime_go.Value{inputTensor}, outputs); err != nil {
		return RawOutput{}, fmt.Errorf("%w: %w", ErrBackendFailure, err)
	}
	outputTensor := outputs[0]
	defer func() {
		if err := outputTensor.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying output tensor: %v\n", err)
		}
	}()

	floatTensor, ok := outputTensor.(*onnxruntime_go.Tensor[float32])
	if !ok {
		return RawOutput{}, fmt.Errorf("expected float32 output tensor, got %T", outputTensor)
	}

	// Copy out before the backing tensor is destroyed.
	src := floatTensor.GetData()
	data := make([]float32, len(src))
	copy(data, src)

	shape := outputTensor.GetShape()
	out := RawOutput{Data: data, Shape: make([]int64, len(shape))}
	copy(out.Shape, shape)
	return out, nil
}

// RunInference preprocesses an image, executes the model, and returns the
// raw output together with the image's scale factors and inference duration.
func (d *Detector) RunInference(img image.Image) (RawOutput, ScaleFactors, time.Duration, error) {
	if img == nil {
		return RawOutput{}, ScaleFactors{}, 0, errors.New("input image is nil")
	}

	tensor, sf, err := Preprocess(img, d.config.InputWidth, d.config.InputHeight)
	if err != nil {
		return RawOutput{}, ScaleFactors{}, 0, fmt.Errorf("preprocessing failed: %w", err)
	}

	start := time.Now()
	raw, err := d.runSession(tensor)
	elapsed := time.Since(start)
	if err != nil {
		return RawOutput{}, ScaleFactors{}, 0, err
	}
	return raw, sf, elapsed, nil
}

// Detect runs the full pipeline with the configured thresholds.
func (d *Detector) Detect(img image.Image) (*DetectionResult, error) {
	return d.DetectWithThresholds(img, d.config.ConfThreshold, d.config.IoUThreshold)
}

// DetectWithThresholds runs preprocess, inference, and decode+NMS with
// caller-supplied thresholds. An image with no signatures yields a result
// with an empty detection list, not an error.
func (d *Detector) DetectWithThresholds(img image.Image, confThres, iouThres float64) (*DetectionResult, error) {
	if err := validateThreshold("confidence", confThres); err != nil {
		return nil, err
	}
	if err := validateThreshold("IoU", iouThres); err != nil {
		return nil, err
	}

	raw, sf, elapsed, err := d.RunInference(img)
	if err != nil {
		return nil, err
	}

	detections, err := PostProcess(raw, confThres, iouThres, sf)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &DetectionResult{
		Detections:     detections,
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
		InferenceTime:  elapsed.Nanoseconds(),
	}, nil
}
