package detect

import (
	"gonum.org/v1/gonum/floats"
)

// IoU computes intersection-over-union of two detection boxes.
func IoU(a, b Detection) float64 {
	ra, rb := a.Rect(), b.Rect()
	inter := ra.Intersection(rb).Area()
	if inter <= 0 {
		return 0
	}
	union := ra.Area() + rb.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// NMS performs class-aware non-maximum suppression. Detections are
// processed in descending confidence order; a detection is suppressed when
// it overlaps an already-kept detection of the same class above the
// threshold. The result is ordered by descending confidence.
func NMS(dets []Detection, iouThreshold float64) []Detection {
	if len(dets) <= 1 {
		return dets
	}

	scores := make([]float64, len(dets))
	for i, d := range dets {
		scores[i] = d.Confidence
	}
	inds := make([]int, len(dets))
	floats.Argsort(scores, inds)

	// Argsort is ascending; walk it back to front.
	var kept []Detection
	for i := len(inds) - 1; i >= 0; i-- {
		cand := dets[inds[i]]
		suppressed := false
		for _, k := range kept {
			if k.ClassID == cand.ClassID && IoU(k, cand) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, cand)
		}
	}
	return kept
}
