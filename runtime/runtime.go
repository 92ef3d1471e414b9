// Package runtime ties the model loader, inference engine and label store
// into a single long-lived context. It keeps the latest frame and detection
// results behind their own locks so the capture loop and the HTTP handlers
// can touch them concurrently.
package runtime

import (
	"context"
	"image"
	"image/draw"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cira-robotics/go-edge/inference"
	"github.com/cira-robotics/go-edge/labels"
	"github.com/cira-robotics/go-edge/models/model"
	"github.com/cira-robotics/go-edge/yolo"
)

// Version is the runtime release string reported by the health endpoint.
const Version = "1.0.0"

// Detection is a single object in normalized frame coordinates. X,Y is the
// top-left corner and W,H the extent, all in [0,1].
type Detection struct {
	Label      string
	ClassID    int
	Confidence float32
	X, Y, W, H float32
}

// Runtime owns a loaded model and the rolling prediction state.
type Runtime struct {
	log    logrus.FieldLogger
	cfg    yolo.Config
	format model.Format
	engine inference.Engine
	names  *labels.Set

	resultMu   sync.RWMutex
	detections []Detection
	resultW    int
	resultH    int

	frameMu sync.RWMutex
	frame   *image.RGBA

	statsMu         sync.Mutex
	totalDetections uint64
	totalFrames     uint64
	byLabel         map[string]uint64
	start           time.Time
	fps             float32
	inferenceEWMA   float64
}

// latencySmoothing is the EWMA factor for the rolling inference latency.
const latencySmoothing = 0.1

// Load opens the model at path, applies any manifest found next to it and
// constructs the backend engine for the detected format.
func Load(path string, cfg yolo.Config) (*Runtime, error) {
	format := model.DetectFormat(path)
	if format == model.FormatUnknown {
		return nil, errors.Errorf("runtime: unrecognized model format at %s", path)
	}

	dir := path
	if filepath.Ext(path) != "" {
		dir = filepath.Dir(path)
	}

	manifest, err := model.LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	if manifest != nil {
		manifest.Apply(&cfg)
	}

	names, err := labels.Discover(dir)
	if err != nil {
		return nil, err
	}
	if cfg.NumClasses == 0 && names.Len() > 0 {
		cfg.NumClasses = names.Len()
	}

	engine, err := inference.NewEngine(path, format, cfg)
	if err != nil {
		return nil, err
	}

	r := New(engine, names, cfg, format)
	r.log.WithFields(logrus.Fields{
		"model":   path,
		"format":  format,
		"labels":  names.Len(),
		"version": cfg.Version,
	}).Info("model loaded")
	return r, nil
}

// New wraps an already constructed engine. Load is the usual entry point;
// New exists for callers that build their own backend.
func New(engine inference.Engine, names *labels.Set, cfg yolo.Config, format model.Format) *Runtime {
	return &Runtime{
		log:     logrus.WithField("component", "runtime"),
		cfg:     cfg,
		format:  format,
		engine:  engine,
		names:   names,
		byLabel: make(map[string]uint64),
		start:   time.Now(),
	}
}

// Predict runs one frame through the engine, stores the frame and the
// normalized results, and returns the detections.
func (r *Runtime) Predict(ctx context.Context, img image.Image) ([]Detection, error) {
	begin := time.Now()
	dets, err := r.engine.Predict(ctx, img)
	if err != nil {
		return nil, err
	}
	r.recordLatency(time.Since(begin))

	b := img.Bounds()
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		out = append(out, r.normalize(d, b.Dx(), b.Dy()))
	}

	r.storeFrame(img)
	r.storeResults(out, b.Dx(), b.Dy())

	return out, nil
}

// normalize converts pixel corners into a clamped normalized box. Width and
// height shrink so the box never extends past the right or bottom edge.
func (r *Runtime) normalize(d yolo.Detection, frameW, frameH int) Detection {
	fw := float32(frameW)
	fh := float32(frameH)

	x := clamp01(d.X1 / fw)
	y := clamp01(d.Y1 / fh)
	w := (d.X2 - d.X1) / fw
	h := (d.Y2 - d.Y1) / fh
	if w > 1-x {
		w = 1 - x
	}
	if h > 1-y {
		h = 1 - y
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}

	return Detection{
		Label:      r.names.Get(d.ClassID),
		ClassID:    d.ClassID,
		Confidence: d.Score,
		X:          x, Y: y, W: w, H: h,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (r *Runtime) storeResults(dets []Detection, frameW, frameH int) {
	r.resultMu.Lock()
	r.detections = dets
	r.resultW = frameW
	r.resultH = frameH
	r.resultMu.Unlock()

	r.statsMu.Lock()
	r.totalFrames++
	r.totalDetections += uint64(len(dets))
	for _, d := range dets {
		r.byLabel[d.Label]++
	}
	r.statsMu.Unlock()
}

// StoreFrame updates the latest frame without running inference. The capture
// loop uses it for frames the motion gate filtered out, so streaming stays
// live while the scene is static.
func (r *Runtime) StoreFrame(img image.Image) {
	r.storeFrame(img)
}

// storeFrame keeps a private RGBA copy of the latest frame.
func (r *Runtime) storeFrame(img image.Image) {
	b := img.Bounds()
	frame := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(frame, frame.Bounds(), img, b.Min, draw.Src)

	r.frameMu.Lock()
	r.frame = frame
	r.frameMu.Unlock()
}

// recordLatency folds one inference duration into the rolling average.
func (r *Runtime) recordLatency(d time.Duration) {
	r.statsMu.Lock()
	ms := float64(d) / float64(time.Millisecond)
	if r.inferenceEWMA == 0 {
		r.inferenceEWMA = ms
	} else {
		r.inferenceEWMA = latencySmoothing*ms + (1-latencySmoothing)*r.inferenceEWMA
	}
	r.statsMu.Unlock()
}

// Results returns the detections from the most recent frame.
func (r *Runtime) Results() []Detection {
	r.resultMu.RLock()
	defer r.resultMu.RUnlock()
	out := make([]Detection, len(r.detections))
	copy(out, r.detections)
	return out
}

// Frame returns a copy of the latest stored frame, or nil before the first
// prediction.
func (r *Runtime) Frame() *image.RGBA {
	r.frameMu.RLock()
	defer r.frameMu.RUnlock()
	if r.frame == nil {
		return nil
	}
	out := image.NewRGBA(r.frame.Rect)
	copy(out.Pix, r.frame.Pix)
	return out
}

// PixelBoxes converts the latest normalized results back into pixel-corner
// detections for the given frame size. Annotation and the results endpoint
// both consume this view.
func (r *Runtime) PixelBoxes(frameW, frameH int) []yolo.Detection {
	dets := r.Results()
	out := make([]yolo.Detection, 0, len(dets))
	fw := float32(frameW)
	fh := float32(frameH)
	for _, d := range dets {
		out = append(out, yolo.Detection{
			X1:      d.X * fw,
			Y1:      d.Y * fh,
			X2:      (d.X + d.W) * fw,
			Y2:      (d.Y + d.H) * fh,
			Score:   d.Confidence,
			ClassID: d.ClassID,
		})
	}
	return out
}

// Labels exposes the loaded class names.
func (r *Runtime) Labels() *labels.Set { return r.names }

// Format reports the loaded model's format.
func (r *Runtime) Format() model.Format { return r.format }

// Config returns the effective decoder configuration after manifest
// overrides.
func (r *Runtime) Config() yolo.Config { return r.cfg }

// SetFPS records the capture loop's current frame rate.
func (r *Runtime) SetFPS(fps float32) {
	r.statsMu.Lock()
	r.fps = fps
	r.statsMu.Unlock()
}

// FPS returns the last recorded capture frame rate.
func (r *Runtime) FPS() float32 {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.fps
}

// Close releases the backend engine.
func (r *Runtime) Close() error {
	if r.engine == nil {
		return nil
	}
	return r.engine.Close()
}
