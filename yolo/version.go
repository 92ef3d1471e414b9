// Package yolo - Version-aware decoding of YOLO detection outputs.
//
// The package turns the raw float tensors produced by an inference backend
// (ONNX Runtime, NCNN, TensorRT, Darknet) into a canonical list of pixel-space
// bounding box detections. Four materially different output encodings are
// supported: YOLOv3/v4 anchor rows, YOLOv5/v7 concatenated anchors,
// YOLOv8/v9/v11 transposed anchor-free outputs (with or without DFL), and
// YOLOv10 NMS-free triples. When no version is declared the encoding is
// inferred from the tensor shape.
package yolo

import "strings"

// Version identifies the output encoding family of a YOLO model.
//
// The tag collapses model generations that share one wire format: V5 also
// covers v7 exports, V8 also covers v9 and v11.
type Version int

const (
	// VersionAuto requests shape-based format detection.
	VersionAuto Version = iota
	// VersionV4 is the anchor-based [1, numBoxes, 5+C] row format (v3/v4).
	VersionV4
	// VersionV5 is the concatenated pre-decoded [1, numBoxes, 5+C] format (v5/v7).
	VersionV5
	// VersionV8 is the transposed anchor-free [1, 4+C, numBoxes] format
	// (v8/v9/v11), optionally with DFL box regression ([1, 64+C, numBoxes]).
	VersionV8
	// VersionV10 is the NMS-free [1, 300, 6] triple format.
	VersionV10
)

// String returns the human-readable family name.
func (v Version) String() string {
	switch v {
	case VersionV4:
		return "YOLOv4"
	case VersionV5:
		return "YOLOv5/v7"
	case VersionV8:
		return "YOLOv8/v9/v11"
	case VersionV10:
		return "YOLOv10"
	default:
		return "auto"
	}
}

// ParseVersion maps a manifest version string such as "yolov8", "v10" or
// "auto" to its Version tag. Unrecognised strings resolve to VersionAuto so a
// malformed manifest degrades to shape detection instead of failing the load.
func ParseVersion(s string) Version {
	lower := strings.ToLower(strings.TrimSpace(s))

	switch {
	case strings.Contains(lower, "v10"):
		return VersionV10
	case strings.Contains(lower, "v8"),
		strings.Contains(lower, "v9"),
		strings.Contains(lower, "v11"):
		return VersionV8
	case strings.Contains(lower, "v5"),
		strings.Contains(lower, "v7"):
		return VersionV5
	case strings.Contains(lower, "v3"),
		strings.Contains(lower, "v4"):
		return VersionV4
	default:
		return VersionAuto
	}
}

// Known concatenated-anchor box counts for YOLOv5/v7 exports at the common
// input sizes (640, 480 letterboxed, 320).
var v5BoxCounts = map[int64]bool{25200: true, 18900: true, 6300: true}

// Known per-scale anchor grid sizes for YOLOv4 exports
// (13x13x3, 26x26x3, 52x52x3).
var v4GridCounts = map[int64]bool{507: true, 2028: true, 8112: true}

// DetectVersion infers the output encoding from a tensor shape. It inspects
// the two dimensions following the batch dimension and applies a fixed
// priority order, exact matches first, generic aspect-ratio fallbacks second.
//
// This is a best-effort classifier over ambiguous shape metadata, not a
// guaranteed-correct parser. A manifest-declared version always takes
// priority over detection.
func DetectVersion(shape []int64, numClasses int) Version {
	if len(shape) < 2 {
		return VersionAuto
	}

	dim1 := shape[1]
	dim2 := int64(0)
	if len(shape) >= 3 {
		dim2 = shape[2]
	}

	switch {
	// YOLOv10: [1, 300, 6] NMS-free output.
	case dim1 == 300 && dim2 == 6:
		return VersionV10

	// YOLOv8: [1, 4+C, 8400] transposed, no objectness.
	case dim2 == 8400 && dim1 == int64(4+numClasses):
		return VersionV8

	// YOLOv5/v7: [1, 25200, 5+C] concatenated anchors.
	case v5BoxCounts[dim1]:
		return VersionV5

	// Transposed fallback: few channels, many boxes.
	case dim1 < 100 && dim2 > 1000:
		return VersionV8

	// Concatenated fallback: many boxes, few channels.
	case dim1 > 1000 && dim2 < 100:
		return VersionV5

	// Per-scale anchor grids.
	case v4GridCounts[dim1]:
		return VersionV4
	}

	return VersionAuto
}
