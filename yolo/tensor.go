package yolo

import "github.com/pkg/errors"

// Detection is one decoded bounding box in pixel-space corner format.
// After decode the corners satisfy 0 <= X1 <= X2 <= InputWidth and
// 0 <= Y1 <= Y2 <= InputHeight.
type Detection struct {
	X1, Y1, X2, Y2 float32
	// Score is the final confidence in [0,1]. For anchor-based formats this
	// is objectness multiplied by the best class probability.
	Score float32
	// ClassID is the index of the winning class.
	ClassID int
}

// Tensor is a borrowed view of one backend output: a contiguous row-major
// float32 buffer plus its shape, outermost dimension first. The engine never
// retains or mutates the buffer.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// Elements returns the element count implied by the shape.
func (t Tensor) Elements() int64 {
	if len(t.Shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Validate checks that the buffer is consistent with the shape. A nil or
// zero-length buffer yields ErrEmptyInput; a length that disagrees with the
// shape product yields ErrShapeMismatch.
func (t Tensor) Validate() error {
	if len(t.Data) == 0 {
		return ErrEmptyInput
	}
	if len(t.Shape) == 0 {
		return errors.Wrap(ErrShapeMismatch, "missing shape")
	}
	if n := t.Elements(); n != int64(len(t.Data)) {
		return errors.Wrapf(ErrShapeMismatch,
			"buffer has %d elements, shape %v implies %d", len(t.Data), t.Shape, n)
	}
	return nil
}
