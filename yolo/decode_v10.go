package yolo

import "github.com/pkg/errors"

// decodeV10 parses the NMS-free [1, 300, 6] format of YOLOv10. Each row is
// [x1, y1, x2, y2, score, classID] already in final pixel corner format, so
// only the confidence filter applies. The model performs its own duplicate
// elimination; callers must not run NMS on the result.
func decodeV10(data []float32, shape []int64, cfg *Config) ([]Detection, error) {
	if len(shape) < 3 {
		return nil, errors.Wrapf(ErrShapeMismatch, "need 3 dimensions, got %v", shape)
	}

	numBoxes := int(shape[1])
	boxSize := int(shape[2])
	if numBoxes <= 0 || len(data) == 0 {
		return nil, ErrEmptyInput
	}
	if boxSize < 6 {
		return nil, errors.Wrapf(ErrShapeMismatch, "row width %d, need 6", boxSize)
	}
	if len(data) < numBoxes*boxSize {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"buffer has %d elements, need %d for shape %v", len(data), numBoxes*boxSize, shape)
	}

	maxW := float32(cfg.InputWidth)
	maxH := float32(cfg.InputHeight)

	var dets []Detection
	for i := 0; i < numBoxes; i++ {
		box := data[i*boxSize:]

		score := box[4]
		if score <= cfg.ConfThreshold {
			continue
		}

		dets = append(dets, Detection{
			X1:      clamp(box[0], 0, maxW),
			Y1:      clamp(box[1], 0, maxH),
			X2:      clamp(box[2], 0, maxW),
			Y2:      clamp(box[3], 0, maxH),
			Score:   score,
			ClassID: int(box[5]),
		})
	}

	return dets, nil
}
