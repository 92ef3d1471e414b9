package runtime

import (
	"context"
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cira-robotics/go-edge/labels"
	"github.com/cira-robotics/go-edge/models/model"
	"github.com/cira-robotics/go-edge/yolo"
)

// stubEngine returns a fixed set of pixel-space detections.
type stubEngine struct {
	dets   []yolo.Detection
	err    error
	closed bool
}

func (s *stubEngine) Predict(ctx context.Context, img image.Image) ([]yolo.Detection, error) {
	return s.dets, s.err
}

func (s *stubEngine) InputSize() (int, int) { return 640, 640 }

func (s *stubEngine) Close() error {
	s.closed = true
	return nil
}

func testRuntime(dets []yolo.Detection) (*Runtime, *stubEngine) {
	eng := &stubEngine{dets: dets}
	names := labels.NewSet([]string{"scratch", "dent"})
	rt := New(eng, names, yolo.COCOConfig(), model.FormatONNX)
	return rt, eng
}

func TestPredictNormalizesResults(t *testing.T) {
	rt, _ := testRuntime([]yolo.Detection{
		{X1: 64, Y1: 48, X2: 320, Y2: 240, Score: 0.9, ClassID: 1},
	})

	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))
	dets, err := rt.Predict(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	d := dets[0]
	assert.Equal(t, "dent", d.Label)
	assert.InDelta(t, 0.1, d.X, 1e-5)
	assert.InDelta(t, 0.1, d.Y, 1e-5)
	assert.InDelta(t, 0.4, d.W, 1e-5)
	assert.InDelta(t, 0.4, d.H, 1e-5)
}

func TestPredictClampsOverhangingBox(t *testing.T) {
	rt, _ := testRuntime([]yolo.Detection{
		{X1: 600, Y1: 400, X2: 700, Y2: 500, Score: 0.8, ClassID: 0},
	})

	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))
	dets, err := rt.Predict(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	d := dets[0]
	// Width and height shrink so the box stays inside the unit square.
	assert.InDelta(t, float64(1-d.X), float64(d.W), 1e-5)
	assert.InDelta(t, float64(1-d.Y), float64(d.H), 1e-5)
}

func TestResultJSONShape(t *testing.T) {
	rt, _ := testRuntime([]yolo.Detection{
		{X1: 64, Y1: 48, X2: 320, Y2: 240, Score: 0.8765, ClassID: 0},
	})

	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))
	_, err := rt.Predict(context.Background(), frame)
	require.NoError(t, err)

	var payload struct {
		Detections []struct {
			Label      string  `json:"label"`
			Confidence float64 `json:"confidence"`
			BBox       [4]int  `json:"bbox"`
		} `json:"detections"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rt.ResultJSON(), &payload))

	require.Equal(t, 1, payload.Count)
	det := payload.Detections[0]
	assert.Equal(t, "scratch", det.Label)
	assert.Equal(t, 0.877, det.Confidence)
	assert.Equal(t, [4]int{64, 48, 256, 192}, det.BBox)
}

func TestResultJSONEmptyBeforeFirstPredict(t *testing.T) {
	rt, _ := testRuntime(nil)
	assert.JSONEq(t, `{"detections":[],"count":0}`, string(rt.ResultJSON()))
}

func TestStatsAccumulate(t *testing.T) {
	rt, _ := testRuntime([]yolo.Detection{
		{X1: 0, Y1: 0, X2: 10, Y2: 10, Score: 0.9, ClassID: 0},
		{X1: 20, Y1: 20, X2: 30, Y2: 30, Score: 0.8, ClassID: 1},
	})

	frame := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for i := 0; i < 3; i++ {
		_, err := rt.Predict(context.Background(), frame)
		require.NoError(t, err)
	}
	rt.SetFPS(12.5)

	stats := rt.Stats()
	assert.Equal(t, uint64(3), stats.TotalFrames)
	assert.Equal(t, uint64(6), stats.TotalDetections)
	assert.Equal(t, uint64(3), stats.ByLabel["scratch"])
	assert.Equal(t, uint64(3), stats.ByLabel["dent"])
	assert.Equal(t, float32(12.5), stats.FPS)
	assert.True(t, stats.ModelLoaded)
}

func TestFrameCopyIsolated(t *testing.T) {
	rt, _ := testRuntime(nil)

	frame := image.NewRGBA(image.Rect(0, 0, 8, 8))
	frame.Pix[0] = 200
	_, err := rt.Predict(context.Background(), frame)
	require.NoError(t, err)

	snap := rt.Frame()
	require.NotNil(t, snap)
	snap.Pix[0] = 7

	again := rt.Frame()
	assert.Equal(t, uint8(200), again.Pix[0])
}

func TestPixelBoxesRoundTrip(t *testing.T) {
	rt, _ := testRuntime([]yolo.Detection{
		{X1: 64, Y1: 48, X2: 320, Y2: 240, Score: 0.9, ClassID: 1},
	})

	frame := image.NewRGBA(image.Rect(0, 0, 640, 480))
	_, err := rt.Predict(context.Background(), frame)
	require.NoError(t, err)

	boxes := rt.PixelBoxes(640, 480)
	require.Len(t, boxes, 1)
	assert.InDelta(t, 64, boxes[0].X1, 0.5)
	assert.InDelta(t, 240, boxes[0].Y2, 0.5)
	assert.Equal(t, 1, boxes[0].ClassID)
}

func TestCloseReleasesEngine(t *testing.T) {
	rt, eng := testRuntime(nil)
	require.NoError(t, rt.Close())
	assert.True(t, eng.closed)
}
