// Package images - image geometry and letterbox helpers shared by the
// preprocessing and annotation layers.
package images

// Rect is a lightweight pixel-space bounding box.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 int
}

// CalculateIoU returns the Intersection over Union of two rectangles, the
// standard box-similarity metric: intersection area divided by the area the
// two boxes cover together. 1.0 means identical boxes, 0.0 means disjoint.
func CalculateIoU(r, o Rect) float32 {
	// The overlap starts where both boxes have begun and ends as soon as
	// either box ends.
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	// Inclusion-exclusion keeps the overlap from being counted twice.
	areaR := (r.X2 - r.X1) * (r.Y2 - r.Y1)
	areaO := (o.X2 - o.X1) * (o.Y2 - o.Y1)
	unionArea := areaR + areaO - interArea

	return float32(interArea) / float32(unionArea)
}
