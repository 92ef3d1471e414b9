package yolo

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scaleTensor builds a [1, n, 8] V5-style tensor (3 classes) with a single
// confident pixel-space box injected at the given centre.
func scaleTensor(n int, cx, cy, size float32, classID int) Tensor {
	data := make([]float32, n*8)
	row := data[:8]
	row[0], row[1], row[2], row[3] = cx, cy, size, size
	row[4] = 1.0
	row[5+classID] = 0.9
	return Tensor{Data: data, Shape: []int64{1, int64(n), 8}}
}

func fusionConfig() Config {
	return Config{
		Version:       VersionV5,
		InputWidth:    640,
		InputHeight:   640,
		NumClasses:    3,
		ConfThreshold: 0.5,
		NMSThreshold:  0.45,
		MaxDetections: 100,
	}
}

func TestDecodeOutput_AutoDetection(t *testing.T) {
	cfg := fusionConfig()
	cfg.Version = VersionAuto
	cfg.NumClasses = 80

	data, shape := v10Tensor([6]float32{10, 10, 50, 50, 0.9, 3})

	dets, err := DecodeOutput(data, shape, &cfg)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, 3, dets[0].ClassID)
}

func TestDecodeOutput_UndetectableShape(t *testing.T) {
	cfg := fusionConfig()
	cfg.Version = VersionAuto

	_, err := DecodeOutput(make([]float32, 49), []int64{1, 7, 7}, &cfg)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestDecodeOutput_EmptyBuffer(t *testing.T) {
	cfg := fusionConfig()
	_, err := DecodeOutput(nil, []int64{1, 1, 8}, &cfg)
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestDecodeOutput_AppliesNMS(t *testing.T) {
	cfg := fusionConfig()

	// Two near-identical same-class rows in one tensor: one survives.
	data := make([]float32, 2*8)
	copy(data[0:], []float32{100, 100, 40, 40, 1.0, 0.9, 0, 0})
	copy(data[8:], []float32{102, 102, 40, 40, 1.0, 0.8, 0, 0})

	dets, err := DecodeOutput(data, []int64{1, 2, 8}, &cfg)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.InDelta(t, 0.9, dets[0].Score, 1e-5)
}

func TestDecodeOutput_TruncatesToMaxDetections(t *testing.T) {
	cfg := fusionConfig()
	cfg.MaxDetections = 2

	// Four disjoint same-class boxes all survive NMS, then the cap bites.
	data := make([]float32, 4*8)
	for i := 0; i < 4; i++ {
		copy(data[i*8:], []float32{float32(50 + 150*i), 100, 40, 40, 1.0, 0.9, 0, 0})
	}

	dets, err := DecodeOutput(data, []int64{1, 4, 8}, &cfg)
	require.NoError(t, err)
	assert.Len(t, dets, 2)
}

func TestDecodeOutputs_MultiScaleFusion(t *testing.T) {
	cfg := fusionConfig()

	// One confident box per scale, all in different image regions: fusing
	// with a single NMS pass must keep exactly all three.
	tensors := []Tensor{
		scaleTensor(6400, 100, 100, 40, 0),
		scaleTensor(1600, 300, 300, 80, 1),
		scaleTensor(400, 500, 500, 120, 2),
	}

	dets := DecodeOutputs(tensors, &cfg)
	require.Len(t, dets, 3)

	classes := map[int]bool{}
	for _, d := range dets {
		classes[d.ClassID] = true
	}
	assert.Len(t, classes, 3, "each scale's box must survive fusion")
}

func TestDecodeOutputs_CrossScaleSuppression(t *testing.T) {
	cfg := fusionConfig()

	// The same object reported by two scales collapses to one detection in
	// the single fused NMS pass.
	tensors := []Tensor{
		scaleTensor(6400, 100, 100, 40, 0),
		scaleTensor(1600, 101, 101, 40, 0),
	}

	dets := DecodeOutputs(tensors, &cfg)
	assert.Len(t, dets, 1)
}

func TestDecodeOutputs_MixedNMSFreeScales(t *testing.T) {
	cfg := fusionConfig()
	cfg.Version = VersionAuto

	// One anchor-based scale carrying a duplicated box alongside an NMS-free
	// end-to-end head. The sibling's NMS-free output must not disable
	// suppression for the anchor scale's duplicates.
	dup := scaleTensor(1200, 100, 100, 40, 1)
	copy(dup.Data[8:], []float32{102, 102, 40, 40, 1.0, 0, 0.8, 0})

	v10data, v10shape := v10Tensor([6]float32{400, 400, 450, 450, 0.9, 2})
	tensors := []Tensor{dup, {Data: v10data, Shape: v10shape}}

	dets := DecodeOutputs(tensors, &cfg)
	require.Len(t, dets, 2)

	classes := map[int]bool{}
	for _, d := range dets {
		classes[d.ClassID] = true
	}
	assert.True(t, classes[1] && classes[2], "one box per surviving object")
}

func TestDecodeOutputs_SkipsFailedScales(t *testing.T) {
	cfg := fusionConfig()

	tensors := []Tensor{
		scaleTensor(6400, 100, 100, 40, 0),
		{Data: make([]float32, 5), Shape: []int64{1, 7}}, // undecodable
		scaleTensor(400, 500, 500, 120, 2),
	}

	dets := DecodeOutputs(tensors, &cfg)
	assert.Len(t, dets, 2, "healthy scales must survive a sibling's failure")
}

func TestDecodeOutputs_AllScalesFailed(t *testing.T) {
	cfg := fusionConfig()
	cfg.Version = VersionAuto

	tensors := []Tensor{
		{Data: make([]float32, 49), Shape: []int64{1, 7, 7}},
		{Data: nil, Shape: []int64{1, 1, 8}},
	}

	// Total decode failure is an empty result, not a hard error.
	assert.Empty(t, DecodeOutputs(tensors, &cfg))
}

func TestTensorValidate(t *testing.T) {
	assert.True(t, errors.Is(Tensor{}.Validate(), ErrEmptyInput))

	bad := Tensor{Data: make([]float32, 10), Shape: []int64{1, 3, 4}}
	assert.True(t, errors.Is(bad.Validate(), ErrShapeMismatch))

	good := Tensor{Data: make([]float32, 12), Shape: []int64{1, 3, 4}}
	assert.NoError(t, good.Validate())
	assert.Equal(t, int64(12), good.Elements())
}
