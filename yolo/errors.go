package yolo

import "github.com/pkg/errors"

// Decode failures are scoped to a single output tensor and are recoverable:
// the orchestrator skips the failed scale and fuses whatever decoded cleanly.
var (
	// ErrShapeMismatch indicates a tensor rank or dimension inconsistent with
	// the expected layout for the selected decoder.
	ErrShapeMismatch = errors.New("output shape does not match decoder layout")

	// ErrUnsupportedFormat indicates that shape detection could not classify
	// the output and no explicit version was configured.
	ErrUnsupportedFormat = errors.New("unsupported or undetectable output format")

	// ErrEmptyInput indicates a zero-length buffer or a shape with no boxes.
	ErrEmptyInput = errors.New("empty output tensor")
)
