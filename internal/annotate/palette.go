package annotate

import (
	"image/color"
	"math"
)

// Palette returns one visually distinct color per class. The palette is
// deterministic, so a class keeps the same color across every box drawn on
// an image; callers compute it once per image, not once per box.
func Palette(numClasses int) []color.NRGBA {
	if numClasses < 1 {
		numClasses = 1
	}
	colors := make([]color.NRGBA, numClasses)
	// Golden-ratio hue spacing keeps adjacent class colors far apart.
	const goldenRatio = 0.61803398875
	hue := 0.0
	for i := range colors {
		colors[i] = hsvToRGB(hue, 0.65, 0.95)
		hue = math.Mod(hue+goldenRatio, 1.0)
	}
	return colors
}

func hsvToRGB(h, s, v float64) color.NRGBA {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.NRGBA{
		R: uint8(r * 255),
		G: uint8(g * 255),
		B: uint8(b * 255),
		A: 255,
	}
}
