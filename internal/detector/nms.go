package detector

import (
	"sort"
)

// IoU computes Intersection over Union for two corner-form boxes.
func IoU(a, b Box) float64 {
	interLeft := maxInt(a.Left, b.Left)
	interTop := maxInt(a.Top, b.Top)
	interRight := minInt(a.Right(), b.Right())
	interBottom := minInt(a.Bottom(), b.Bottom())

	if interLeft >= interRight || interTop >= interBottom {
		return 0.0
	}

	interArea := float64(interRight-interLeft) * float64(interBottom-interTop)
	areaA := float64(a.Width) * float64(a.Height)
	areaB := float64(b.Width) * float64(b.Height)
	unionArea := areaA + areaB - interArea

	if unionArea <= 0 {
		return 0.0
	}
	return interArea / unionArea
}

// NonMaxSuppression performs greedy NMS over candidates in their original
// order. The highest-remaining-score candidate is emitted and every
// remaining candidate whose IoU with it exceeds iouThreshold is suppressed.
// Score ties are broken by candidate order (first-seen wins), which keeps
// output deterministic. iouThreshold=1 disables suppression entirely.
func NonMaxSuppression(candidates []Detection, iouThreshold float64) []Detection {
	if len(candidates) <= 1 {
		return candidates
	}

	// Stable sort of indices so equal scores keep candidate order.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return candidates[order[i]].Score > candidates[order[j]].Score
	})

	suppressed := make([]bool, len(candidates))
	kept := make([]Detection, 0, len(candidates))

	for _, a := range order {
		if suppressed[a] {
			continue
		}
		kept = append(kept, candidates[a])

		for _, b := range order {
			if suppressed[b] || a == b {
				continue
			}
			if IoU(candidates[a].Box, candidates[b].Box) > iouThreshold {
				suppressed[b] = true
			}
		}
	}
	return kept
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
