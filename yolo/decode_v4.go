package yolo

import "github.com/pkg/errors"

// decodeV4 parses the anchor-based row format [1, numBoxes, 5+C] shared by
// YOLOv3/v4 and, with coordinates usually pre-decoded by the exporter, by
// YOLOv5/v7. Each row is [cx, cy, w, h, objectness, classProbs...].
//
// TODO: add the 5-D raw grid path for [1, gridH, gridW, anchors, 5+C] ONNX
// exports; it needs the anchor-box tables and per-cell sigmoid decode that
// pre-flattened exports bake in.
func decodeV4(data []float32, shape []int64, cfg *Config) ([]Detection, error) {
	if len(shape) > 3 {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"raw %d-D anchor grid output is not supported, re-export with decoded boxes", len(shape))
	}
	if len(shape) < 3 {
		return nil, errors.Wrapf(ErrShapeMismatch, "need 3 dimensions, got %v", shape)
	}

	numBoxes := int(shape[1])
	boxSize := int(shape[2])
	if numBoxes <= 0 || boxSize <= 0 || len(data) == 0 {
		return nil, ErrEmptyInput
	}
	if len(data) < numBoxes*boxSize {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"buffer has %d elements, need %d for shape %v", len(data), numBoxes*boxSize, shape)
	}

	// Trust the tensor over the config when the row is too narrow for the
	// configured class count, or when no class count was configured at all.
	numClasses := cfg.NumClasses
	if numClasses <= 0 || boxSize < 5+numClasses {
		numClasses = boxSize - 5
		if numClasses <= 0 {
			return nil, errors.Wrapf(ErrShapeMismatch,
				"row width %d leaves no class scores", boxSize)
		}
	}

	var dets []Detection
	for i := 0; i < numBoxes; i++ {
		box := data[i*boxSize:]

		obj := activate(box[4])
		if obj <= cfg.ConfThreshold {
			continue
		}

		bestClass := 0
		bestProb := box[5]
		for c := 1; c < numClasses; c++ {
			if box[5+c] > bestProb {
				bestProb = box[5+c]
				bestClass = c
			}
		}
		bestProb = activate(bestProb)

		score := obj * bestProb
		if score <= cfg.ConfThreshold {
			continue
		}

		x1, y1, x2, y2 := corners(box[0], box[1], box[2], box[3], cfg)
		dets = append(dets, Detection{
			X1: x1, Y1: y1, X2: x2, Y2: y2,
			Score:   score,
			ClassID: bestClass,
		})
	}

	return dets, nil
}
