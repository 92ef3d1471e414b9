package camera

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// MotionConfig tunes the motion gate that decides which frames are worth
// running through the model.
type MotionConfig struct {
	// MinContourArea filters out contours too small to be real movement.
	MinContourArea float64
	// DiffThreshold is the per-pixel difference that counts as change.
	DiffThreshold float32
	// BlurKernel is the Gaussian kernel size used for denoising, must be odd.
	BlurKernel int
	// UseBackgroundModel switches from plain frame differencing to MOG2
	// background subtraction.
	UseBackgroundModel bool
	// TriggerScore is the smoothed motion score above which a frame goes to
	// inference.
	TriggerScore float64
	// HistorySize bounds the smoothing window in frames.
	HistorySize int
}

// DefaultMotionConfig returns gate settings tuned for a fixed indoor camera.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		MinContourArea:     500,
		DiffThreshold:      30,
		BlurKernel:         21,
		UseBackgroundModel: true,
		TriggerScore:       0.002,
		HistorySize:        30,
	}
}

// motionGate scores frames for movement. Not safe for concurrent use; the
// capture loop is its only caller.
type motionGate struct {
	cfg     MotionConfig
	prev    gocv.Mat
	mog2    gocv.BackgroundSubtractorMOG2
	history []float64
	primed  bool
}

func newMotionGate(cfg MotionConfig) *motionGate {
	if cfg.BlurKernel%2 == 0 {
		cfg.BlurKernel++
	}
	g := &motionGate{
		cfg:     cfg,
		prev:    gocv.NewMat(),
		history: make([]float64, 0, cfg.HistorySize),
	}
	if cfg.UseBackgroundModel {
		g.mog2 = gocv.NewBackgroundSubtractorMOG2()
	}
	return g
}

// score returns the smoothed motion score for the frame, in [0,1]. The first
// frame always scores zero while the gate primes its reference frame.
func (g *motionGate) score(frame gocv.Mat) float64 {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred,
		image.Pt(g.cfg.BlurKernel, g.cfg.BlurKernel), 0, 0, gocv.BorderDefault)

	if !g.primed {
		blurred.CopyTo(&g.prev)
		g.primed = true
		return 0
	}

	var raw float64
	if g.cfg.UseBackgroundModel {
		raw = g.scoreBackground(blurred)
	} else {
		raw = g.scoreDifference(blurred)
	}
	blurred.CopyTo(&g.prev)

	return g.smooth(raw)
}

// scoreDifference rates movement as the fraction of the frame covered by
// changed contours.
func (g *motionGate) scoreDifference(frame gocv.Mat) float64 {
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(frame, g.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, g.cfg.DiffThreshold, 255, gocv.ThresholdBinary)

	return math.Min(g.contourArea(mask)/frameArea(frame), 1)
}

// scoreBackground rates movement against an adaptive MOG2 background model,
// with morphological open/close to clean the foreground mask.
func (g *motionGate) scoreBackground(frame gocv.Mat) float64 {
	mask := gocv.NewMat()
	defer mask.Close()
	g.mog2.Apply(frame, &mask)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(5, 5))
	defer kernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, kernel)
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, kernel)

	return math.Min(g.contourArea(mask)/frameArea(frame), 1)
}

// contourArea sums the area of contours large enough to matter.
func (g *motionGate) contourArea(mask gocv.Mat) float64 {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	total := 0.0
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		contour.Close()
		if area >= g.cfg.MinContourArea {
			total += area
		}
	}
	return total
}

func frameArea(m gocv.Mat) float64 {
	return float64(m.Rows() * m.Cols())
}

// smooth keeps a rolling score window and returns a recency-weighted mean,
// so one noisy frame neither opens nor closes the gate.
func (g *motionGate) smooth(score float64) float64 {
	g.history = append(g.history, score)
	if len(g.history) > g.cfg.HistorySize {
		g.history = g.history[len(g.history)-g.cfg.HistorySize:]
	}

	total := 0.0
	weightSum := 0.0
	for i, s := range g.history {
		w := float64(i+1) / float64(len(g.history))
		total += s * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return total / weightSum
}

func (g *motionGate) Close() {
	g.prev.Close()
	if g.cfg.UseBackgroundModel {
		g.mog2.Close()
	}
}
