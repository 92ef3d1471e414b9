package inference

import (
	"context"
	"image"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/cira-robotics/go-edge/images"
	"github.com/cira-robotics/go-edge/yolo"
)

// ortInit guards the process-wide ONNX Runtime environment.
var ortInit sync.Once

// SharedLibraryPath overrides the ONNX Runtime shared library location
// before the first engine is created. Empty keeps the platform default.
var SharedLibraryPath string

func defaultSharedLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "third_party/onnxruntime.dll"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "third_party/onnxruntime_arm64.dylib"
		}
		return "third_party/onnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "third_party/onnxruntime_arm64.so"
		}
		return "third_party/onnxruntime.so"
	}
}

// onnxEngine runs a YOLO ONNX export through ONNX Runtime. One engine owns
// one session; a mutex serialises Run against the session's reused input
// tensor, and model swaps are handled above this layer.
type onnxEngine struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	input   *ort.Tensor[float32]
	outputs int
	cfg     yolo.Config
}

func newONNXEngine(path string, cfg yolo.Config) (*onnxEngine, error) {
	var initErr error
	ortInit.Do(func() {
		lib := SharedLibraryPath
		if lib == "" {
			lib = defaultSharedLibPath()
		}
		ort.SetSharedLibraryPath(lib)
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, errors.Wrap(initErr, "initialising onnxruntime")
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, errors.Wrapf(err, "inspecting %s", path)
	}
	if len(inputs) != 1 {
		return nil, errors.Errorf("expected a single-input model, %s has %d", path, len(inputs))
	}

	// Prefer the graph's own input resolution when it is static; dynamic
	// dimensions keep the manifest/default size.
	if dims := inputs[0].Dimensions; len(dims) == 4 && dims[2] > 0 && dims[3] > 0 {
		cfg.InputHeight = int(dims[2])
		cfg.InputWidth = int(dims[3])
	}

	inputNames := []string{inputs[0].Name}
	outputNames := make([]string, len(outputs))
	for i, o := range outputs {
		outputNames[i] = o.Name
	}

	session, err := ort.NewDynamicAdvancedSession(path, inputNames, outputNames, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "creating session for %s", path)
	}

	shape := ort.NewShape(1, 3, int64(cfg.InputHeight), int64(cfg.InputWidth))
	input, err := ort.NewEmptyTensor[float32](shape)
	if err != nil {
		session.Destroy()
		return nil, errors.Wrap(err, "allocating input tensor")
	}

	logrus.WithFields(logrus.Fields{
		"model":   path,
		"input":   inputs[0].Name,
		"outputs": len(outputs),
		"size":    cfg.InputWidth,
	}).Info("onnx model loaded")

	return &onnxEngine{
		session: session,
		input:   input,
		outputs: len(outputs),
		cfg:     cfg,
	}, nil
}

func (e *onnxEngine) InputSize() (int, int) {
	return e.cfg.InputWidth, e.cfg.InputHeight
}

// Predict letterboxes the frame, runs the session, decodes every output
// tensor through the shared YOLO engine and maps the fused detections back
// to source-frame coordinates.
func (e *onnxEngine) Predict(ctx context.Context, img image.Image) ([]yolo.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, params := toNCHW(img, e.cfg.InputWidth, e.cfg.InputHeight)

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.input.GetData(), data)

	outputs := make([]ort.Value, e.outputs)
	if err := e.session.Run([]ort.Value{e.input}, outputs); err != nil {
		return nil, errors.Wrap(err, "running inference")
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	tensors := make([]yolo.Tensor, 0, len(outputs))
	for _, o := range outputs {
		t, ok := o.(*ort.Tensor[float32])
		if !ok {
			continue // non-float output (e.g. class count), not a detection head
		}
		tensors = append(tensors, yolo.Tensor{Data: t.GetData(), Shape: t.GetShape()})
	}

	dets := yolo.DecodeOutputs(tensors, &e.cfg)
	return toSourceSpace(dets, params), nil
}

// toSourceSpace undoes the letterbox transform and clamps to the frame.
func toSourceSpace(dets []yolo.Detection, params images.LetterboxParams) []yolo.Detection {
	maxW := float32(params.SourceWidth)
	maxH := float32(params.SourceHeight)

	out := make([]yolo.Detection, 0, len(dets))
	for _, d := range dets {
		x1, y1 := params.ToSource(d.X1, d.Y1)
		x2, y2 := params.ToSource(d.X2, d.Y2)

		d.X1 = clampf(x1, 0, maxW)
		d.Y1 = clampf(y1, 0, maxH)
		d.X2 = clampf(x2, 0, maxW)
		d.Y2 = clampf(y2, 0, maxH)
		out = append(out, d)
	}
	return out
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (e *onnxEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.input != nil {
		e.input.Destroy()
		e.input = nil
	}
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	return nil
}
