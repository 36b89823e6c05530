// Package pipeline wires preprocessing, inference, post-processing,
// annotation, and cropping into a single entry point.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/tech4humans/sigdet/internal/annotate"
	"github.com/tech4humans/sigdet/internal/crop"
	"github.com/tech4humans/sigdet/internal/detector"
	"github.com/tech4humans/sigdet/internal/metrics"
	"github.com/tech4humans/sigdet/internal/utils"
)

// Detector is the inference boundary the pipeline depends on. The concrete
// implementation is detector.Detector; tests substitute a stub.
type Detector interface {
	DetectWithThresholds(img image.Image, confThres, iouThres float64) (*detector.DetectionResult, error)
	GetConfig() detector.Config
	Close() error
}

// ImageResult is the outcome of one image's pipeline run. Results are
// independent of each other; a batch interrupted between images leaves every
// finished result intact.
type ImageResult struct {
	Detections  []detector.Detection `json:"detections"`
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	InferenceMS float64              `json:"inference_ms"`
	Processing  time.Duration        `json:"-"`
}

// FileResult pairs an ImageResult with its source path for batch output.
type FileResult struct {
	Path   string       `json:"path"`
	Result *ImageResult `json:"result,omitempty"`
	Err    error        `json:"-"`
}

// Pipeline runs signature detection for images and records inference timing
// in the shared metrics storage. All per-image state is passed through the
// call chain, so one Pipeline may serve concurrent workers.
type Pipeline struct {
	detector    Detector
	metrics     *metrics.Storage
	cropper     crop.Cropper
	confThres   float64
	iouThres    float64
	ownsMetrics bool
}

// ProcessImage runs detection on a decoded image with the pipeline's
// configured thresholds.
func (p *Pipeline) ProcessImage(img image.Image) (*ImageResult, error) {
	return p.ProcessImageWith(img, p.confThres, p.iouThres)
}

// ProcessImageWith runs detection with caller-supplied thresholds, recording
// the inference duration in the shared metrics storage.
func (p *Pipeline) ProcessImageWith(img image.Image, confThres, iouThres float64) (*ImageResult, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	start := time.Now()

	res, err := p.detector.DetectWithThresholds(img, confThres, iouThres)
	if err != nil {
		return nil, err
	}

	inferenceMS := res.InferenceMS()
	if p.metrics != nil {
		if err := p.metrics.Record(inferenceMS); err != nil {
			slog.Warn("Failed to record inference metric", "error", err)
		}
	}

	return &ImageResult{
		Detections:  res.Detections,
		Width:       res.OriginalWidth,
		Height:      res.OriginalHeight,
		InferenceMS: inferenceMS,
		Processing:  time.Since(start),
	}, nil
}

// ProcessFile loads an image from disk and runs detection on it.
func (p *Pipeline) ProcessFile(path string) (*ImageResult, error) {
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return p.ProcessImage(img)
}

// Annotated draws the detections onto a copy of the original image.
func (p *Pipeline) Annotated(img image.Image, detections []detector.Detection) *image.RGBA {
	return annotate.DrawDetections(img, detections, p.detector.GetConfig().Classes)
}

// Crops extracts padded signature regions from the original image, in
// detection order.
func (p *Pipeline) Crops(img image.Image, detections []detector.Detection) []crop.Crop {
	return p.cropper.Signatures(img, detections)
}

// Metrics exposes the shared metrics storage.
func (p *Pipeline) Metrics() *metrics.Storage {
	return p.metrics
}

// Thresholds returns the pipeline's configured confidence and IoU thresholds.
func (p *Pipeline) Thresholds() (float64, float64) {
	return p.confThres, p.iouThres
}

// Close releases the detector and, when owned by the pipeline, the metrics
// storage.
func (p *Pipeline) Close() error {
	var errs []error
	if p.detector != nil {
		if err := p.detector.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.ownsMetrics && p.metrics != nil {
		if err := p.metrics.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
