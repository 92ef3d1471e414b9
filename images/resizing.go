package images

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
)

// letterboxFill is the 114-grey padding colour used by the reference YOLO
// training pipelines.
var letterboxFill = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// LetterboxParams records how a frame was fitted into the model input so
// detections can be mapped back to source-image coordinates.
type LetterboxParams struct {
	// Scale is the uniform factor applied to the source image.
	Scale float32
	// PadX and PadY are the letterbox margins in target pixels.
	PadX, PadY int
	// SourceWidth and SourceHeight are the original frame dimensions.
	SourceWidth, SourceHeight int
}

// Letterbox scales img to fit width x height preserving aspect ratio and
// pads the remainder with neutral grey, the convention YOLO exports are
// trained with.
func Letterbox(img image.Image, width, height int) (*image.RGBA, LetterboxParams) {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	scale := min(float32(width)/float32(srcW), float32(height)/float32(srcH))
	newW := int(float32(srcW) * scale)
	newH := int(float32(srcH) * scale)

	scaled := resize.Resize(uint(newW), uint(newH), img, resize.Bilinear)

	params := LetterboxParams{
		Scale:        scale,
		PadX:         (width - newW) / 2,
		PadY:         (height - newH) / 2,
		SourceWidth:  srcW,
		SourceHeight: srcH,
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(letterboxFill), image.Point{}, draw.Src)
	target := image.Rect(params.PadX, params.PadY, params.PadX+newW, params.PadY+newH)
	draw.Draw(dst, target, scaled, image.Point{}, draw.Src)

	return dst, params
}

// ToSource maps a model-input pixel coordinate back to the source frame.
func (p LetterboxParams) ToSource(x, y float32) (float32, float32) {
	sx := (x - float32(p.PadX)) / p.Scale
	sy := (y - float32(p.PadY)) / p.Scale
	return sx, sy
}
