// Package annotate renders detection boxes and score labels onto images.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tech4humans/sigdet/internal/detector"
	"github.com/tech4humans/sigdet/internal/utils"
)

const boxThickness = 2

// labelFace is the fixed-size face used for detection labels.
var labelFace = basicfont.Face7x13

// DrawDetections copies the source image onto a fresh RGBA canvas and draws
// every detection on it: a rectangle in the class color plus a filled label
// "<class>: <score>" with two decimal places. The label sits above the box
// unless there is no vertical room, in which case it moves below. The source
// image is never mutated.
func DrawDetections(img image.Image, detections []detector.Detection, classes []string) *image.RGBA {
	if img == nil {
		return nil
	}
	canvas := utils.CloneRGBA(img)
	palette := Palette(max(len(classes), 1))
	for _, det := range detections {
		DrawDetection(canvas, det, classes, palette)
	}
	return canvas
}

// DrawDetection draws a single detection onto a shared canvas. All boxes for
// one image must be drawn on the same canvas with the same palette.
func DrawDetection(canvas *image.RGBA, det detector.Detection, classes []string, palette []color.NRGBA) {
	col := palette[det.ClassID%len(palette)]
	utils.DrawRect(canvas, det.Box.Rect(), col, boxThickness)

	name := fmt.Sprintf("class_%d", det.ClassID)
	if det.ClassID >= 0 && det.ClassID < len(classes) {
		name = classes[det.ClassID]
	}
	label := fmt.Sprintf("%s: %.2f", name, det.Score)
	drawLabel(canvas, label, det.Box, col)
}

// drawLabel renders the label text over a filled background. The baseline
// goes 10px above the box top when that leaves room for the text height,
// otherwise 10px below the top edge.
func drawLabel(canvas *image.RGBA, label string, box detector.Box, bg color.NRGBA) {
	labelWidth := font.MeasureString(labelFace, label).Ceil()
	labelHeight := labelFace.Metrics().Ascent.Ceil()

	labelX := box.Left
	labelY := box.Top - 10
	if labelY <= labelHeight {
		labelY = box.Top + 10
	}

	bgRect := image.Rect(labelX, labelY-labelHeight, labelX+labelWidth, labelY+labelHeight)
	utils.FillRect(canvas, bgRect, bg)

	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: labelFace,
		Dot:  fixed.P(labelX, labelY),
	}
	d.DrawString(label)
}
