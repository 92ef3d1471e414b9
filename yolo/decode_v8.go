package yolo

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// dflBins is the number of probability bins per box side under Distribution
// Focal Loss regression (4 sides x 16 bins = 64 channels).
const dflBins = 16

// strides of the three standard YOLOv8 detection scales, in descending
// grid-size order to match the box concatenation order of the export.
var v8Strides = [3]int{8, 16, 32}

// decodeV8 parses the transposed anchor-free format of YOLOv8/v9/v11:
// [1, 4+C, numBoxes] with direct box coordinates, or [1, 64+C, numBoxes]
// with DFL-regressed box distances. Box attributes are the outer dimension,
// so channel k of box i lives at data[k*numBoxes+i]. There is no objectness
// channel; the best class score is the final score.
func decodeV8(data []float32, shape []int64, cfg *Config) ([]Detection, error) {
	if len(shape) < 3 {
		return nil, errors.Wrapf(ErrShapeMismatch, "need 3 dimensions, got %v", shape)
	}

	channels := int(shape[1])
	numBoxes := int(shape[2])
	if numBoxes <= 0 || len(data) == 0 {
		return nil, ErrEmptyInput
	}
	if len(data) < channels*numBoxes {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"buffer has %d elements, need %d for shape %v", len(data), channels*numBoxes, shape)
	}

	var boxChannels int
	switch channels {
	case 4 + cfg.NumClasses:
		boxChannels = 4
	case 4*dflBins + cfg.NumClasses:
		boxChannels = 4 * dflBins
	default:
		return nil, errors.Wrapf(ErrShapeMismatch,
			"%d channels fits neither 4+%d nor 64+%d", channels, cfg.NumClasses, cfg.NumClasses)
	}

	// The class block is whatever the box block leaves behind. A tensor with
	// no class channels has nothing to score.
	numClasses := channels - boxChannels
	if numClasses <= 0 {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"%d channels leave no class scores past the %d box channels", channels, boxChannels)
	}

	// For the DFL sub-encoding the flat box axis is three concatenated scale
	// runs; work out the partition up front.
	var runs []strideRun
	if boxChannels != 4 {
		runs = partitionScales(numBoxes, cfg)
		if runs == nil {
			return nil, errors.Wrapf(ErrShapeMismatch,
				"%d boxes do not split into three DFL scale runs", numBoxes)
		}
	}

	var dets []Detection
	for i := 0; i < numBoxes; i++ {
		bestClass := 0
		bestScore := data[boxChannels*numBoxes+i]
		for c := 1; c < numClasses; c++ {
			if s := data[(boxChannels+c)*numBoxes+i]; s > bestScore {
				bestScore = s
				bestClass = c
			}
		}
		bestScore = activate(bestScore)
		if bestScore <= cfg.ConfThreshold {
			continue
		}

		var x1, y1, x2, y2 float32
		if boxChannels == 4 {
			cx := data[0*numBoxes+i]
			cy := data[1*numBoxes+i]
			w := data[2*numBoxes+i]
			h := data[3*numBoxes+i]
			x1, y1, x2, y2 = corners(cx, cy, w, h, cfg)
		} else {
			x1, y1, x2, y2 = dflBox(data, numBoxes, i, runs, cfg)
		}

		dets = append(dets, Detection{
			X1: x1, Y1: y1, X2: x2, Y2: y2,
			Score:   bestScore,
			ClassID: bestClass,
		})
	}

	return dets, nil
}

// strideRun describes one contiguous run of boxes on the flat box axis that
// belongs to a single detection scale.
type strideRun struct {
	start  int // index of the run's first box
	stride int // downsampling factor of the scale
	gridW  int // grid width, for recovering the cell coordinates
}

// partitionScales splits the flat box axis into the three stride-8/16/32
// runs of a standard YOLOv8 head. Counts are derived from the input
// resolution; when they disagree with the tensor (non-square letterboxing,
// unusual export) the fixed 64:16:4 box-count ratio is used instead. That
// ratio is an export convention, not a format guarantee; callers with true
// per-scale output tensors should pass them individually and avoid the
// split entirely. Returns nil when the box count fits neither derivation.
func partitionScales(numBoxes int, cfg *Config) []strideRun {
	runs := make([]strideRun, 0, 3)
	start := 0
	for _, s := range v8Strides {
		gw := cfg.InputWidth / s
		gh := cfg.InputHeight / s
		runs = append(runs, strideRun{start: start, stride: s, gridW: gw})
		start += gw * gh
	}
	if start == numBoxes {
		return runs
	}

	// 64:16:4 boxes per unit across strides 8/16/32.
	if numBoxes%(64+16+4) != 0 {
		return nil
	}
	unit := numBoxes / (64 + 16 + 4)
	aspect := float32(1)
	if cfg.InputWidth > 0 && cfg.InputHeight > 0 {
		aspect = float32(cfg.InputWidth) / float32(cfg.InputHeight)
	}
	start = 0
	for k, s := range v8Strides {
		count := []int{64, 16, 4}[k] * unit
		// Grid width for a grid of count cells at the input aspect ratio
		// (gw/gh == aspect, gw*gh == count).
		gw := int(math32.Round(math32.Sqrt(float32(count) * aspect)))
		runs[k] = strideRun{start: start, stride: s, gridW: gw}
		start += count
	}
	return runs
}

// runFor locates the scale run containing box i.
func runFor(runs []strideRun, i int) strideRun {
	run := runs[0]
	for _, r := range runs[1:] {
		if i < r.start {
			break
		}
		run = r
	}
	return run
}

// dflBox decodes the four DFL side distributions of box i into pixel-space
// corners. The anchor point is the centre of the box's grid cell; each
// decoded distance is in stride units.
func dflBox(data []float32, numBoxes, i int, runs []strideRun, cfg *Config) (x1, y1, x2, y2 float32) {
	run := runFor(runs, i)
	cell := i - run.start
	gx := cell % run.gridW
	gy := cell / run.gridW

	stride := float32(run.stride)
	cx := (float32(gx) + 0.5) * stride
	cy := (float32(gy) + 0.5) * stride

	var side [4]float32 // left, top, right, bottom
	var bins [dflBins]float32
	for b := 0; b < 4; b++ {
		for k := 0; k < dflBins; k++ {
			bins[k] = data[(b*dflBins+k)*numBoxes+i]
		}
		side[b] = dflDecode(bins[:])
	}

	maxW := float32(cfg.InputWidth)
	maxH := float32(cfg.InputHeight)
	x1 = clamp(cx-side[0]*stride, 0, maxW)
	y1 = clamp(cy-side[1]*stride, 0, maxH)
	x2 = clamp(cx+side[2]*stride, 0, maxW)
	y2 = clamp(cy+side[3]*stride, 0, maxH)
	return x1, y1, x2, y2
}

// dflDecode collapses one 16-bin DFL distribution to its expected bin index,
// a continuous distance in stride units. Softmax is computed with the usual
// max subtraction for numerical stability.
func dflDecode(bins []float32) float32 {
	maxv := bins[0]
	for _, v := range bins[1:] {
		if v > maxv {
			maxv = v
		}
	}

	var sum, acc float32
	for k, v := range bins {
		e := math32.Exp(v - maxv)
		sum += e
		acc += e * float32(k)
	}
	return acc / sum
}
