package crop

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	gridMaxColumns = 3
	gridCellMargin = 20
	gridLabelSpace = 60
)

// Grid lays cropped signatures out in a labeled montage, up to three columns
// wide, for display or export. An empty crop list yields a small blank
// placeholder image.
func Grid(crops []Crop, maxWidth int) image.Image {
	bg := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if len(crops) == 0 {
		return imaging.New(400, 100, bg)
	}
	if maxWidth <= 0 {
		maxWidth = 1200
	}

	cols := minGrid(gridMaxColumns, len(crops))
	rows := (len(crops) + cols - 1) / cols

	maxW, maxH := 0, 0
	for _, c := range crops {
		b := c.Image.Bounds()
		if b.Dx() > maxW {
			maxW = b.Dx()
		}
		if b.Dy() > maxH {
			maxH = b.Dy()
		}
	}

	cellWidth := minGrid(maxW+2*gridCellMargin, maxWidth/cols)
	cellHeight := maxH + gridLabelSpace

	grid := imaging.New(cols*cellWidth, rows*cellHeight, bg)
	for idx, c := range crops {
		row := idx / cols
		col := idx % cols
		xOffset := col*cellWidth + gridCellMargin
		yOffset := row*cellHeight + gridCellMargin + 10

		sig := c.Image
		if sig.Bounds().Dx() > cellWidth-2*gridCellMargin {
			sig = imaging.Resize(sig, cellWidth-2*gridCellMargin, 0, imaging.Lanczos)
		}
		grid = imaging.Paste(grid, sig, image.Pt(xOffset, yOffset))

		label := fmt.Sprintf("Signature %d (%.2f)", idx+1, c.Score)
		drawGridLabel(grid, label, xOffset, yOffset+sig.Bounds().Dy()+15)
	}
	return grid
}

func drawGridLabel(dst *image.NRGBA, label string, x, y int) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

func minGrid(a, b int) int {
	if a < b {
		return a
	}
	return b
}
