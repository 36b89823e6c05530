package detector

import (
	"errors"
	"fmt"
	"image"
)

// Box is a corner-form bounding box in original-image pixel coordinates.
// Width and height may exceed the image bounds; clamping happens at the
// consumer (annotation, cropping).
type Box struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns the exclusive right edge.
func (b Box) Right() int { return b.Left + b.Width }

// Bottom returns the exclusive bottom edge.
func (b Box) Bottom() int { return b.Top + b.Height }

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right(), b.Bottom())
}

// Detection is a box that survived confidence filtering and NMS.
// Identity is positional only; there is no tracking across images.
type Detection struct {
	Box     Box     `json:"box"`
	Score   float64 `json:"score"`
	ClassID int     `json:"class_id"`
}

// ScaleFactors maps model-input coordinates back to original-image pixels.
// Computed once per image at preprocess time and passed explicitly through
// the pipeline so the same detector can serve concurrent callers.
type ScaleFactors struct {
	X float64
	Y float64
}

// Validate rejects non-positive factors, which indicate a zero-dimension
// image slipped past preprocessing.
func (sf ScaleFactors) Validate() error {
	if sf.X <= 0 || sf.Y <= 0 {
		return fmt.Errorf("scale factors must be strictly positive, got (%g, %g)", sf.X, sf.Y)
	}
	return nil
}

// RawOutput is the untouched model output plus its shape, expected to be
// [1, 4+numClasses, numCandidates].
type RawOutput struct {
	Data  []float32
	Shape []int64
}

// DetectionResult holds the final detections for one image along with
// the dimensions and timing needed by display layers.
type DetectionResult struct {
	Detections     []Detection
	OriginalWidth  int
	OriginalHeight int
	InferenceTime  int64 // nanoseconds spent in the inference backend
}

// InferenceMS returns the inference time in milliseconds.
func (r *DetectionResult) InferenceMS() float64 {
	return float64(r.InferenceTime) / 1e6
}

// ErrBackendFailure marks failures of the inference backend itself, as
// opposed to invalid inputs. Callers may retry at their discretion.
var ErrBackendFailure = errors.New("inference backend failure")

// validateThreshold rejects threshold values outside [0,1] instead of
// clamping so configuration bugs surface immediately.
func validateThreshold(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("invalid %s threshold: %g (must be between 0.0 and 1.0)", name, v)
	}
	return nil
}
