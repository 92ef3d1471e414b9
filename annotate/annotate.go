// Package annotate draws detection overlays on decoded frames. It renders
// bounding boxes, class labels and confidence scores with pure image
// operations so annotated streaming works without a GUI toolkit.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/cira-robotics/go-edge/images"
	"github.com/cira-robotics/go-edge/labels"
	"github.com/cira-robotics/go-edge/yolo"
)

// duplicateLabelIoU is the overlap above which a second detection box skips
// its text label. The box itself is still drawn, but stacking near identical
// labels on top of each other makes both unreadable.
const duplicateLabelIoU = 0.85

// Options controls how detections are rendered.
type Options struct {
	// Thickness is the box outline width in pixels.
	Thickness int
	// ShowLabel draws the class name above each box.
	ShowLabel bool
	// ShowConfidence appends the score as a percentage to the label.
	ShowConfidence bool
}

// DefaultOptions matches the annotated stream defaults.
func DefaultOptions() Options {
	return Options{Thickness: 2, ShowLabel: true, ShowConfidence: true}
}

var (
	labelFace = basicfont.Face7x13
	textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Draw renders the detections onto img in place. Detection coordinates are
// pixel corners in the frame's own space. names may be nil, in which case
// boxes render without class names.
func Draw(img *image.RGBA, dets []yolo.Detection, names *labels.Set, opts Options) {
	if img == nil || len(dets) == 0 {
		return
	}
	if opts.Thickness < 1 {
		opts.Thickness = 1
	}

	bounds := img.Bounds()
	labelled := make([]images.Rect, 0, len(dets))

	for _, det := range dets {
		box := images.Rect{
			X1: int(det.X1), Y1: int(det.Y1),
			X2: int(det.X2), Y2: int(det.Y2),
		}
		clr := ClassColor(det.ClassID)

		drawBoxOutline(img, box, opts.Thickness, clr)

		if !opts.ShowLabel && !opts.ShowConfidence {
			continue
		}
		if coversLabelled(box, labelled) {
			continue
		}
		labelled = append(labelled, box)

		text := labelText(det, names, opts)
		drawLabel(img, bounds, box, text, clr)
	}
}

// labelText formats the overlay text for one detection.
func labelText(det yolo.Detection, names *labels.Set, opts Options) string {
	name := names.Get(det.ClassID)
	switch {
	case opts.ShowLabel && opts.ShowConfidence:
		return fmt.Sprintf("%s %.0f%%", name, det.Score*100)
	case opts.ShowLabel:
		return name
	default:
		return fmt.Sprintf("%.0f%%", det.Score*100)
	}
}

// coversLabelled reports whether box overlaps an already labelled region
// closely enough that a second label would just pile on top of the first.
func coversLabelled(box images.Rect, labelled []images.Rect) bool {
	for _, prev := range labelled {
		if images.CalculateIoU(box, prev) > duplicateLabelIoU {
			return true
		}
	}
	return false
}

// drawBoxOutline strokes the four edges of box with the given thickness.
func drawBoxOutline(img *image.RGBA, box images.Rect, thickness int, clr color.RGBA) {
	src := image.NewUniform(clr)
	top := image.Rect(box.X1, box.Y1, box.X2, box.Y1+thickness)
	bottom := image.Rect(box.X1, box.Y2-thickness, box.X2, box.Y2)
	left := image.Rect(box.X1, box.Y1, box.X1+thickness, box.Y2)
	right := image.Rect(box.X2-thickness, box.Y1, box.X2, box.Y2)
	for _, edge := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(img, edge.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawLabel paints a filled background strip and the label text in white.
// The strip sits above the box, or below it when the top edge would clip.
func drawLabel(img *image.RGBA, bounds image.Rectangle, box images.Rect, text string, clr color.RGBA) {
	textWidth := font.MeasureString(labelFace, text).Ceil()
	textHeight := labelFace.Metrics().Height.Ceil()
	pad := 2

	stripW := textWidth + 2*pad
	stripH := textHeight + 2*pad

	stripY := box.Y1 - stripH
	if stripY < bounds.Min.Y {
		stripY = box.Y2
	}
	strip := image.Rect(box.X1, stripY, box.X1+stripW, stripY+stripH)
	draw.Draw(img, strip.Intersect(bounds), image.NewUniform(clr), image.Point{}, draw.Src)

	baseline := stripY + pad + labelFace.Metrics().Ascent.Ceil()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: labelFace,
		Dot:  fixed.P(box.X1+pad, baseline),
	}
	drawer.DrawString(text)
}
