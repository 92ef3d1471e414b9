package images

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateIoU(t *testing.T) {
	tests := []struct {
		name     string
		r1       Rect
		r2       Rect
		expected float32
		epsilon  float32
	}{
		{
			name:     "identical rectangles",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{0, 0, 100, 100},
			expected: 1.0,
			epsilon:  0.001,
		},
		{
			name:     "no overlap",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{200, 200, 300, 300},
			expected: 0.0,
			epsilon:  0.001,
		},
		{
			name:     "touching edges",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{100, 0, 200, 100},
			expected: 0.0,
			epsilon:  0.001,
		},
		{
			name:     "quarter overlap",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{50, 50, 150, 150},
			expected: 0.142857,
			epsilon:  0.001,
		},
		{
			name:     "one inside other",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{25, 25, 75, 75},
			expected: 0.25,
			epsilon:  0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculateIoU(tt.r1, tt.r2), float64(tt.epsilon))
			assert.Equal(t, CalculateIoU(tt.r1, tt.r2), CalculateIoU(tt.r2, tt.r1))
		})
	}
}

func TestLetterbox(t *testing.T) {
	// A 200x100 source into a 640x640 target scales by 3.2 and pads the
	// vertical remainder equally top and bottom.
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))

	dst, params := Letterbox(src, 640, 640)

	assert.Equal(t, 640, dst.Bounds().Dx())
	assert.Equal(t, 640, dst.Bounds().Dy())
	assert.InDelta(t, 3.2, params.Scale, 1e-5)
	assert.Equal(t, 0, params.PadX)
	assert.Equal(t, 160, params.PadY)
	assert.Equal(t, 200, params.SourceWidth)
	assert.Equal(t, 100, params.SourceHeight)
}

func TestLetterboxToSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	_, params := Letterbox(src, 640, 640)

	// The centre of the model input maps back to the centre of the frame.
	x, y := params.ToSource(320, 320)
	assert.InDelta(t, 100, x, 0.5)
	assert.InDelta(t, 50, y, 0.5)

	// The top-left of the letterboxed content maps to the frame origin.
	x, y = params.ToSource(0, 160)
	assert.InDelta(t, 0, x, 0.5)
	assert.InDelta(t, 0, y, 0.5)
}
