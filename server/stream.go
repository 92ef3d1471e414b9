package server

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"
)

const (
	mjpegContentType = "multipart/x-mixed-replace; boundary=frame"
	jpegQuality      = 90

	// framePollInterval paces the MJPEG loop so an idle camera does not
	// spin the connection goroutine.
	framePollInterval = 10 * time.Millisecond
)

func encodeJPEG(frame *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	frame := s.annotatedFrame()
	if frame == nil {
		writeError(w, http.StatusServiceUnavailable, "No frame available")
		return
	}

	data, err := encodeJPEG(frame)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "JPEG encoding failed")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Write(data)
}

func (s *Server) handleAnnotatedStream(w http.ResponseWriter, r *http.Request) {
	s.serveStream(w, r, true)
}

func (s *Server) handleRawStream(w http.ResponseWriter, r *http.Request) {
	s.serveStream(w, r, false)
}

// serveStream pushes an MJPEG multipart stream until the client goes away.
// Each part carries one JPEG frame; identical consecutive frames are not
// re-sent.
func (s *Server) serveStream(w http.ResponseWriter, r *http.Request, annotated bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", mjpegContentType)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(framePollInterval)
	defer ticker.Stop()

	var lastSum uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		var frame *image.RGBA
		if annotated {
			frame = s.annotatedFrame()
		} else {
			frame = s.rt.Frame()
		}
		if frame == nil {
			continue
		}

		sum := frameChecksum(frame)
		if sum == lastSum {
			continue
		}
		lastSum = sum

		data, err := encodeJPEG(frame)
		if err != nil {
			s.log.WithError(err).Warn("stream frame encode failed")
			continue
		}

		if _, err := fmt.Fprintf(w,
			"--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
			return
		}
		if _, err := w.Write(data); err != nil {
			return
		}
		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			return
		}
		flusher.Flush()
	}
}

// frameChecksum is a cheap FNV-style hash over a sparse pixel sample, enough
// to tell whether the frame changed since the last send.
func frameChecksum(frame *image.RGBA) uint64 {
	const prime = 1099511628211
	sum := uint64(14695981039346656037)
	step := len(frame.Pix)/1024 + 1
	for i := 0; i < len(frame.Pix); i += step {
		sum = (sum ^ uint64(frame.Pix[i])) * prime
	}
	sum = (sum ^ uint64(len(frame.Pix))) * prime
	return sum
}
