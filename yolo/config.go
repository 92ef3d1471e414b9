package yolo

// Config holds the parameters for one decode invocation. It is read-only to
// the engine; the caller builds it once per loaded model from the manifest
// and reuses it across frames.
type Config struct {
	// Version selects the decoder. VersionAuto triggers shape detection on
	// every tensor passed in.
	Version Version
	// InputWidth and InputHeight are the model input resolution in pixels.
	// Decoders that emit normalized or grid-relative coordinates scale by
	// these to produce pixel-space boxes.
	InputWidth  int
	InputHeight int
	// NumClasses is the expected class count. It sizes the per-box class
	// score block and doubles as a layout consistency check.
	NumClasses int
	// ConfThreshold discards candidates scoring at or below it. The boundary
	// is exclusive: a score exactly equal to the threshold is dropped.
	ConfThreshold float32
	// NMSThreshold is the IoU above which a lower-scoring same-class box is
	// suppressed.
	NMSThreshold float32
	// MaxDetections caps the number of returned detections.
	MaxDetections int
	// Coords pins the box coordinate convention. CoordsAuto applies the
	// per-box normalized-range heuristic; a manifest declaration sets
	// CoordsNormalized or CoordsPixel to bypass the guess.
	Coords Coords
}

// Coords selects how raw box values are interpreted.
type Coords int

const (
	// CoordsAuto guesses per box: values all inside [0,1] read as normalized.
	CoordsAuto Coords = iota
	// CoordsNormalized treats every box as fractions of the input size.
	CoordsNormalized
	// CoordsPixel treats every box as input-space pixels.
	CoordsPixel
)

// COCOConfig returns a Config for a COCO-trained model at 640x640 input with
// auto version detection:
// - Object Classes: 80
// - Confidence Threshold: 0.5
// - NMS Threshold: 0.45
// - Maximum Detections: 100
func COCOConfig() Config {
	return Config{
		Version:       VersionAuto,
		InputWidth:    640,
		InputHeight:   640,
		NumClasses:    80,
		ConfThreshold: 0.5,
		NMSThreshold:  0.45,
		MaxDetections: 100,
	}
}
