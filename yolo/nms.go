package yolo

import "sort"

// NMS removes, per class, lower-scoring boxes that overlap a higher-scoring
// box of the same class by IoU greater than threshold. The input is sorted
// descending by score with original-index tiebreak, which keeps the output
// deterministic for equal scores. Returns the surviving subset in sorted
// order; the input slice is not modified.
//
// Cost is O(n^2), acceptable because n is already bounded by confidence
// filtering. Callers must skip NMS for YOLOv10 outputs, which the model has
// deduplicated itself.
func NMS(detections []Detection, threshold float32) []Detection {
	n := len(detections)
	if n == 0 {
		return nil
	}

	sorted := make([]Detection, n)
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	suppressed := make([]bool, n)
	kept := make([]Detection, 0, n)

	for i := 0; i < n; i++ {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])

		for j := i + 1; j < n; j++ {
			if suppressed[j] || sorted[i].ClassID != sorted[j].ClassID {
				continue
			}
			if iou(&sorted[i], &sorted[j]) > threshold {
				suppressed[j] = true
			}
		}
	}

	return kept
}
