package yolo

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v4TestConfig() Config {
	return Config{
		Version:       VersionV4,
		InputWidth:    640,
		InputHeight:   640,
		NumClasses:    3,
		ConfThreshold: 0.5,
		NMSThreshold:  0.45,
		MaxDetections: 100,
	}
}

// v4Row builds one [cx cy w h obj c0 c1 c2] row.
func v4Row(cx, cy, w, h, obj, c0, c1, c2 float32) []float32 {
	return []float32{cx, cy, w, h, obj, c0, c1, c2}
}

func TestDecodeV4_PixelSpaceRows(t *testing.T) {
	cfg := v4TestConfig()
	data := append(
		v4Row(100, 120, 40, 60, 1.0, 0.1, 0.9, 0.2), // class 1, score 0.9
		v4Row(300, 300, 20, 20, 0.1, 0.9, 0.1, 0.1)..., // objectness below threshold
	)

	dets, err := decodeV4(data, []int64{1, 2, 8}, &cfg)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	assert.Equal(t, 1, dets[0].ClassID)
	assert.InDelta(t, 0.9, dets[0].Score, 1e-5)
	assert.InDelta(t, 80, dets[0].X1, 1e-4)
	assert.InDelta(t, 90, dets[0].Y1, 1e-4)
	assert.InDelta(t, 120, dets[0].X2, 1e-4)
	assert.InDelta(t, 150, dets[0].Y2, 1e-4)
}

func TestDecodeV4_NormalizedRowsScaleToInput(t *testing.T) {
	cfg := v4TestConfig()
	data := v4Row(0.5, 0.5, 0.2, 0.2, 1.0, 0.95, 0.0, 0.0)

	dets, err := decodeV4(data, []int64{1, 1, 8}, &cfg)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	assert.InDelta(t, 256, dets[0].X1, 1e-3)
	assert.InDelta(t, 256, dets[0].Y1, 1e-3)
	assert.InDelta(t, 384, dets[0].X2, 1e-3)
	assert.InDelta(t, 384, dets[0].Y2, 1e-3)
}

func TestDecodeV4_RawLogitsGetSigmoid(t *testing.T) {
	cfg := v4TestConfig()
	// Objectness 5.0 and class score 8.0 are outside [0,1], so both are
	// treated as logits.
	data := v4Row(100, 100, 40, 40, 5.0, -10, 8.0, -10)

	dets, err := decodeV4(data, []int64{1, 1, 8}, &cfg)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	assert.Equal(t, 1, dets[0].ClassID)
	assert.InDelta(t, float64(sigmoid(5.0)*sigmoid(8.0)), float64(dets[0].Score), 1e-5)
}

func TestDecodeV4_ThresholdBoundaryIsExclusive(t *testing.T) {
	cfg := v4TestConfig()
	cfg.ConfThreshold = 0.5

	// Score exactly at the threshold is dropped, just above survives.
	at := v4Row(100, 100, 40, 40, 1.0, 0.5, 0, 0)
	dets, err := decodeV4(at, []int64{1, 1, 8}, &cfg)
	require.NoError(t, err)
	assert.Empty(t, dets)

	above := v4Row(100, 100, 40, 40, 1.0, 0.500001, 0, 0)
	dets, err = decodeV4(above, []int64{1, 1, 8}, &cfg)
	require.NoError(t, err)
	assert.Len(t, dets, 1)
}

func TestDecodeV4_CornersClampedToInput(t *testing.T) {
	cfg := v4TestConfig()
	// Box centred near the edge spills outside the input.
	data := v4Row(630, 10, 100, 100, 1.0, 0.9, 0, 0)

	dets, err := decodeV4(data, []int64{1, 1, 8}, &cfg)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	d := dets[0]
	assert.GreaterOrEqual(t, d.X1, float32(0))
	assert.GreaterOrEqual(t, d.Y1, float32(0))
	assert.LessOrEqual(t, d.X2, float32(cfg.InputWidth))
	assert.LessOrEqual(t, d.Y2, float32(cfg.InputHeight))
	assert.LessOrEqual(t, d.X1, d.X2)
	assert.LessOrEqual(t, d.Y1, d.Y2)
}

func TestDecodeV4_NarrowRowShrinksClassCount(t *testing.T) {
	cfg := v4TestConfig()
	cfg.NumClasses = 80 // manifest disagrees with the tensor

	// Row width 8 only fits 3 classes; the decoder trusts the tensor.
	data := v4Row(100, 100, 40, 40, 1.0, 0.1, 0.1, 0.9)
	dets, err := decodeV4(data, []int64{1, 1, 8}, &cfg)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, 2, dets[0].ClassID)
}

func TestDecodeV4_DerivesClassCountWhenUnconfigured(t *testing.T) {
	cfg := v4TestConfig()
	cfg.NumClasses = 0 // no manifest, no label file

	// Row width 5 leaves no class block at all.
	_, err := decodeV4(make([]float32, 2*5), []int64{1, 2, 5}, &cfg)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	// Width 8 derives three classes from the row and decodes normally.
	data := v4Row(100, 100, 40, 40, 1.0, 0, 0.9, 0)
	dets, err := decodeV4(data, []int64{1, 1, 8}, &cfg)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, 1, dets[0].ClassID)
}

func TestDecodeV4_ShapeErrors(t *testing.T) {
	cfg := v4TestConfig()

	_, err := decodeV4(make([]float32, 10), []int64{1, 10}, &cfg)
	assert.True(t, errors.Is(err, ErrShapeMismatch), "rank 2 must be rejected")

	// 5-D raw anchor grid decode is an open requirement, not silently wrong.
	_, err = decodeV4(make([]float32, 13*13*3*8), []int64{1, 13, 13, 3, 8}, &cfg)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = decodeV4(nil, []int64{1, 1, 8}, &cfg)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	_, err = decodeV4(make([]float32, 4), []int64{1, 2, 8}, &cfg)
	assert.True(t, errors.Is(err, ErrShapeMismatch), "short buffer must be rejected")
}
