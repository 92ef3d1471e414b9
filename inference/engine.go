// Package inference - backend engines running detection models.
package inference

import (
	"context"
	"image"

	"github.com/pkg/errors"

	"github.com/cira-robotics/go-edge/models/model"
	"github.com/cira-robotics/go-edge/yolo"
)

// ErrBackendUnavailable is returned when a model format is recognised but
// its backend is not compiled into this build.
var ErrBackendUnavailable = errors.New("backend not available in this build")

// Engine runs a loaded detection model. Predict returns detections in
// source-frame pixel coordinates; implementations handle the letterbox
// round trip internally.
type Engine interface {
	Predict(ctx context.Context, img image.Image) ([]yolo.Detection, error)
	// InputSize reports the model input resolution.
	InputSize() (w, h int)
	Close() error
}

// NewEngine opens the backend matching the model format. Only the ONNX
// Runtime backend is wired in this build; Darknet, NCNN and TensorRT paths
// report ErrBackendUnavailable so a caller can fall back or fail loudly.
func NewEngine(path string, format model.Format, cfg yolo.Config) (Engine, error) {
	switch format {
	case model.FormatONNX:
		return newONNXEngine(path, cfg)
	case model.FormatDarknet, model.FormatNCNN, model.FormatTensorRT:
		return nil, errors.Wrapf(ErrBackendUnavailable, "%s model %s", format, path)
	default:
		return nil, errors.Errorf("unknown model format: %s", path)
	}
}
