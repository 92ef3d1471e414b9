// Package server exposes the runtime over HTTP: health and statistics
// endpoints for the dashboard, JSON detection results, and MJPEG streams of
// the raw and annotated camera frames.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cira-robotics/go-edge/annotate"
	"github.com/cira-robotics/go-edge/models/model"
	"github.com/cira-robotics/go-edge/runtime"
)

// Server serves the runtime's state over HTTP.
type Server struct {
	log  logrus.FieldLogger
	rt   *runtime.Runtime
	http *http.Server

	// cameraRunning lets the capture loop report liveness for /health.
	// Nil means no camera is attached.
	cameraRunning func() bool
}

// New builds a server around rt listening on addr.
func New(addr string, rt *runtime.Runtime, cameraRunning func() bool) *Server {
	s := &Server{
		log:           logrus.WithField("component", "server"),
		rt:            rt,
		cameraRunning: cameraRunning,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/results", s.handleResults)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/stream", s.handleAnnotatedStream)
	mux.HandleFunc("/stream/annotated", s.handleAnnotatedStream)
	mux.HandleFunc("/stream/raw", s.handleRawStream)

	s.http = &http.Server{
		Addr:    addr,
		Handler: s.accessLog(mux),
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe blocks serving HTTP until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.WithField("addr", s.http.Addr).Info("http server listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// accessLog logs each request with its duration.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"remote":  r.RemoteAddr,
			"elapsed": time.Since(start),
		}).Debug("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, []byte(fmt.Sprintf(`{"error":%q}`, msg)))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

// healthPayload mirrors the fields the edge dashboard polls.
type healthPayload struct {
	Status         string  `json:"status"`
	Version        string  `json:"version"`
	Uptime         int64   `json:"uptime"`
	Timestamp      string  `json:"timestamp"`
	FPS            float32 `json:"fps"`
	Temperature    float32 `json:"temperature"`
	CPUUsage       float32 `json:"cpu_usage"`
	MemoryUsage    float32 `json:"memory_usage"`
	ModelLoaded    bool    `json:"model_loaded"`
	ModelName      string  `json:"model_name"`
	CameraRunning  bool    `json:"camera_running"`
	Detections     int     `json:"detections"`
	DefectsTotal   uint64  `json:"defects_total"`
	DefectsPerHour float32 `json:"defects_per_hour"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.rt.Stats()

	var perHour float32
	if stats.UptimeSec > 0 {
		perHour = float32(stats.TotalDetections) * 3600 / float32(stats.UptimeSec)
	}

	payload := healthPayload{
		Status:         "ok",
		Version:        runtime.Version,
		Uptime:         stats.UptimeSec,
		Timestamp:      stats.Timestamp,
		FPS:            stats.FPS,
		Temperature:    readTemperature(),
		CPUUsage:       readCPUUsage(),
		MemoryUsage:    readMemoryUsage(),
		ModelLoaded:    stats.ModelLoaded,
		ModelName:      modelName(s.rt.Format()),
		CameraRunning:  s.cameraRunning != nil && s.cameraRunning(),
		Detections:     len(s.rt.Results()),
		DefectsTotal:   stats.TotalDetections,
		DefectsPerHour: perHour,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encoding failed")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func modelName(f model.Format) string {
	switch f {
	case model.FormatONNX:
		return "ONNX"
	case model.FormatDarknet:
		return "Darknet"
	case model.FormatNCNN:
		return "NCNN"
	case model.FormatTensorRT:
		return "TensorRT"
	}
	return "unknown"
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.ResultJSON())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(s.rt.Stats())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encoding failed")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// annotatedFrame copies the latest frame and draws the latest detections on
// it. Returns nil before the first prediction.
func (s *Server) annotatedFrame() *image.RGBA {
	frame := s.rt.Frame()
	if frame == nil {
		return nil
	}
	b := frame.Bounds()
	annotate.Draw(frame, s.rt.PixelBoxes(b.Dx(), b.Dy()), s.rt.Labels(), annotate.DefaultOptions())
	return frame
}
