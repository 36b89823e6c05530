// Package crop extracts padded signature regions from detected boxes.
package crop

import (
	"image"

	"github.com/tech4humans/sigdet/internal/detector"
	"github.com/tech4humans/sigdet/internal/utils"
)

// DefaultPadding is the pixel margin added around each detected box.
const DefaultPadding = 10

// Crop is one extracted signature region with its detection confidence.
type Crop struct {
	Image image.Image
	Score float64
}

// Cropper extracts sub-images for detections.
type Cropper struct {
	Padding int
}

// NewCropper returns a cropper with the given padding; negative values fall
// back to DefaultPadding.
func NewCropper(padding int) Cropper {
	if padding < 0 {
		padding = DefaultPadding
	}
	return Cropper{Padding: padding}
}

// Region returns the padded crop rectangle for a box, clamped to the image
// bounds so it always lies within [0,width) x [0,height).
func (c Cropper) Region(bounds image.Rectangle, box detector.Box) image.Rectangle {
	x1 := utils.ClampInt(box.Left-c.Padding, bounds.Min.X, bounds.Max.X)
	y1 := utils.ClampInt(box.Top-c.Padding, bounds.Min.Y, bounds.Max.Y)
	x2 := utils.ClampInt(box.Right()+c.Padding, bounds.Min.X, bounds.Max.X)
	y2 := utils.ClampInt(box.Bottom()+c.Padding, bounds.Min.Y, bounds.Max.Y)
	return image.Rect(x1, y1, x2, y2)
}

// Signatures crops each detection out of the original image, preserving
// input order (NMS emission order, descending score). The source image is
// not mutated. Boxes whose padded, clamped rectangle collapses to zero area
// are skipped: a 0-pixel crop is meaningless downstream, and skipping keeps
// the contract explicit.
func (c Cropper) Signatures(img image.Image, detections []detector.Detection) []Crop {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	crops := make([]Crop, 0, len(detections))
	for _, det := range detections {
		rect := c.Region(bounds, det.Box)
		if rect.Dx() <= 0 || rect.Dy() <= 0 {
			continue
		}
		crops = append(crops, Crop{
			Image: utils.CropImageRect(img, rect),
			Score: det.Score,
		})
	}
	return crops
}
