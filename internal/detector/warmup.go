package detector

import (
	"image"
)

// Warmup runs a number of forward passes with a blank image to reduce
// first-run latency of the inference backend.
func (d *Detector) Warmup(iterations int) error {
	if iterations <= 0 {
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, d.config.InputWidth, d.config.InputHeight))
	tensor, _, err := Preprocess(img, d.config.InputWidth, d.config.InputHeight)
	if err != nil {
		return err
	}

	for range iterations {
		if _, err := d.runSession(tensor); err != nil {
			return err
		}
	}
	return nil
}
