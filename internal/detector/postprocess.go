package detector

import (
	"fmt"

	"github.com/tech4humans/sigdet/internal/onnx"
)

// DecodeRawOutput converts a raw [1, 4+C, N] model output into candidate
// detections in original-image pixel space.
//
// For each candidate column the maximum class score is taken across the C
// score rows; candidates below confThres are dropped entirely. Survivors get
// the argmax class id (first-seen wins on ties) and their center-form box
// (cx, cy, w, h) is converted to corner form and scaled by sf. All four box
// values are truncated toward zero, matching the reference pipeline so
// results stay bit-reproducible.
//
// Candidates are returned in iteration order, not score order.
func DecodeRawOutput(raw RawOutput, confThres float64, sf ScaleFactors) ([]Detection, error) {
	if err := validateThreshold("confidence", confThres); err != nil {
		return nil, err
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	numClasses, numCandidates, err := onnx.ValidateDetectionOutput(raw.Data, raw.Shape)
	if err != nil {
		return nil, fmt.Errorf("unexpected model output: %w", err)
	}

	// The tensor is attribute-major: raw.Data[attr*N + candidate]. Indexing
	// it directly avoids materializing the transposed matrix.
	at := func(attr, candidate int) float32 {
		return raw.Data[attr*numCandidates+candidate]
	}

	var candidates []Detection
	for j := range numCandidates {
		maxScore := float64(at(4, j))
		classID := 0
		for c := 1; c < numClasses; c++ {
			if s := float64(at(4+c, j)); s > maxScore {
				maxScore = s
				classID = c
			}
		}
		if maxScore < confThres {
			continue
		}

		cx := float64(at(0, j))
		cy := float64(at(1, j))
		w := float64(at(2, j))
		h := float64(at(3, j))

		candidates = append(candidates, Detection{
			Box: Box{
				Left:   int((cx - w/2) * sf.X),
				Top:    int((cy - h/2) * sf.Y),
				Width:  int(w * sf.X),
				Height: int(h * sf.Y),
			},
			Score:   maxScore,
			ClassID: classID,
		})
	}
	return candidates, nil
}

// PostProcess runs the full decode + NMS chain on a raw model output and
// returns the final detections in NMS emission order (descending score).
// An empty result is a valid terminal state, not an error.
func PostProcess(raw RawOutput, confThres, iouThres float64, sf ScaleFactors) ([]Detection, error) {
	candidates, err := DecodeRawOutput(raw, confThres, sf)
	if err != nil {
		return nil, err
	}
	if err := validateThreshold("IoU", iouThres); err != nil {
		return nil, err
	}
	return NonMaxSuppression(candidates, iouThres), nil
}
