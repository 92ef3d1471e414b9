package yolo

import "github.com/chewxy/math32"

// iouEpsilon guards the IoU division when the union area degenerates.
const iouEpsilon = 1e-6

// sigmoid is the standard logistic function.
func sigmoid(x float32) float32 {
	return 1.0 / (1.0 + math32.Exp(-x))
}

// activate applies sigmoid only when v lies outside [0,1], treating such
// values as raw logits. Exporters differ on whether activations are baked
// into the graph, so this is decided per value.
func activate(v float32) float32 {
	if v < 0 || v > 1 {
		return sigmoid(v)
	}
	return v
}

// clamp saturates v to [lo, hi].
func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// iou returns intersection area over union area of two corner-format boxes,
// 0 when they do not overlap or the union is non-positive.
func iou(a, b *Detection) float32 {
	ix1 := math32.Max(a.X1, b.X1)
	iy1 := math32.Max(a.Y1, b.Y1)
	ix2 := math32.Min(a.X2, b.X2)
	iy2 := math32.Min(a.Y2, b.Y2)

	iw := math32.Max(0, ix2-ix1)
	ih := math32.Max(0, iy2-iy1)
	inter := iw * ih

	areaA := (a.X2 - a.X1) * (a.Y2 - a.Y1)
	areaB := (b.X2 - b.X1) * (b.Y2 - b.Y1)
	union := areaA + areaB - inter

	if union <= iouEpsilon {
		return 0
	}
	return inter / union
}

// isNormalized reports whether all four raw box values look like normalized
// [0,1] coordinates. The check is per box, not per tensor, because mixed
// encodings exist across backend exports. Known failure mode: a very small
// pixel-space box near the image origin is misread as normalized; a manifest
// "coords" declaration overrides this guess when present.
func isNormalized(cx, cy, w, h float32) bool {
	return cx >= 0 && cx <= 1 && cy >= 0 && cy <= 1 &&
		w >= 0 && w <= 1 && h >= 0 && h <= 1
}

// corners converts a center-format box to a clamped pixel-space Detection
// rectangle, scaling up normalized coordinates first.
func corners(cx, cy, w, h float32, cfg *Config) (x1, y1, x2, y2 float32) {
	normalized := cfg.Coords == CoordsNormalized ||
		(cfg.Coords == CoordsAuto && isNormalized(cx, cy, w, h))
	if normalized {
		cx *= float32(cfg.InputWidth)
		cy *= float32(cfg.InputHeight)
		w *= float32(cfg.InputWidth)
		h *= float32(cfg.InputHeight)
	}

	maxW := float32(cfg.InputWidth)
	maxH := float32(cfg.InputHeight)
	x1 = clamp(cx-w*0.5, 0, maxW)
	y1 = clamp(cy-h*0.5, 0, maxH)
	x2 = clamp(cx+w*0.5, 0, maxW)
	y2 = clamp(cy+h*0.5, 0, maxH)
	return x1, y1, x2, y2
}
