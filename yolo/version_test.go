package yolo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectVersion_Table(t *testing.T) {
	tests := []struct {
		name       string
		shape      []int64
		numClasses int
		expected   Version
	}{
		{
			name:       "yolov10 fixed triples",
			shape:      []int64{1, 300, 6},
			numClasses: 80,
			expected:   VersionV10,
		},
		{
			name:       "yolov8 exact transposed match",
			shape:      []int64{1, 84, 8400},
			numClasses: 80,
			expected:   VersionV8,
		},
		{
			name:       "yolov5 640 input",
			shape:      []int64{1, 25200, 85},
			numClasses: 80,
			expected:   VersionV5,
		},
		{
			name:       "yolov5 320 input",
			shape:      []int64{1, 6300, 85},
			numClasses: 80,
			expected:   VersionV5,
		},
		{
			name:       "transposed fallback with custom class count",
			shape:      []int64{1, 24, 2100},
			numClasses: 20,
			expected:   VersionV8,
		},
		{
			name:       "concatenated fallback",
			shape:      []int64{1, 10647, 85},
			numClasses: 80,
			expected:   VersionV5,
		},
		{
			name:       "yolov4 13x13 anchor grid flattened",
			shape:      []int64{1, 507, 85},
			numClasses: 80,
			expected:   VersionV4,
		},
		{
			name:       "undetectable small shape",
			shape:      []int64{1, 7, 7},
			numClasses: 80,
			expected:   VersionAuto,
		},
		{
			name:       "rank one shape",
			shape:      []int64{1},
			numClasses: 80,
			expected:   VersionAuto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectVersion(tt.shape, tt.numClasses))
		})
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in       string
		expected Version
	}{
		{"yolov10", VersionV10},
		{"v10", VersionV10},
		{"YOLOv8", VersionV8},
		{"yolov9", VersionV8},
		{"yolov11", VersionV8},
		{"v5", VersionV5},
		{"yolov7", VersionV5},
		{"yolov3", VersionV4},
		{"v4", VersionV4},
		{"auto", VersionAuto},
		{"", VersionAuto},
		{"resnet", VersionAuto},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseVersion(tt.in), "input %q", tt.in)
	}
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "YOLOv4", VersionV4.String())
	assert.Equal(t, "YOLOv5/v7", VersionV5.String())
	assert.Equal(t, "YOLOv8/v9/v11", VersionV8.String())
	assert.Equal(t, "YOLOv10", VersionV10.String())
	assert.Equal(t, "auto", VersionAuto.String())
}
