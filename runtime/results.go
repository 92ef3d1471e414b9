package runtime

import (
	"encoding/json"
	"math"
	"time"
)

// resultBox is the wire form of one detection. The bbox holds pixel
// [x, y, w, h] in the coordinates of the frame the detection came from.
type resultBox struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	BBox       [4]int  `json:"bbox"`
}

type resultPayload struct {
	Detections []resultBox `json:"detections"`
	Count      int         `json:"count"`
}

// Stats is a snapshot of the cumulative counters since startup.
type Stats struct {
	TotalDetections uint64            `json:"total_detections"`
	TotalFrames     uint64            `json:"total_frames"`
	ByLabel         map[string]uint64 `json:"by_label"`
	FPS             float32           `json:"fps"`
	InferenceMS     float64           `json:"inference_ms"`
	UptimeSec       int64             `json:"uptime_sec"`
	Timestamp       string            `json:"timestamp"`
	ModelLoaded     bool              `json:"model_loaded"`
}

// ResultJSON renders the latest detections as the dashboard's results
// document. It always returns valid JSON, with an empty detection list
// before the first prediction.
func (r *Runtime) ResultJSON() []byte {
	r.resultMu.RLock()
	dets := r.detections
	fw, fh := r.resultW, r.resultH
	r.resultMu.RUnlock()

	payload := resultPayload{
		Detections: make([]resultBox, 0, len(dets)),
		Count:      len(dets),
	}
	for _, d := range dets {
		payload.Detections = append(payload.Detections, resultBox{
			Label:      d.Label,
			Confidence: math.Round(float64(d.Confidence)*1000) / 1000,
			BBox: [4]int{
				int(d.X * float32(fw)),
				int(d.Y * float32(fh)),
				int(d.W * float32(fw)),
				int(d.H * float32(fh)),
			},
		})
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return []byte(`{"detections":[],"count":0}`)
	}
	return out
}

// Stats returns a copy of the cumulative counters.
func (r *Runtime) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	byLabel := make(map[string]uint64, len(r.byLabel))
	for k, v := range r.byLabel {
		byLabel[k] = v
	}

	return Stats{
		TotalDetections: r.totalDetections,
		TotalFrames:     r.totalFrames,
		ByLabel:         byLabel,
		FPS:             r.fps,
		InferenceMS:     r.inferenceEWMA,
		UptimeSec:       int64(time.Since(r.start).Seconds()),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		ModelLoaded:     r.engine != nil,
	}
}
