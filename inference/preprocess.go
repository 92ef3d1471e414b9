package inference

import (
	"image"

	"github.com/cira-robotics/go-edge/images"
)

// toNCHW letterboxes img into a width x height model input and lays the
// pixels out as planar CHW float32 normalised to [0,1], the layout every
// YOLO ONNX export expects.
func toNCHW(img image.Image, width, height int) ([]float32, images.LetterboxParams) {
	boxed, params := images.Letterbox(img, width, height)

	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		row := boxed.PixOffset(0, y)
		for x := 0; x < width; x++ {
			idx := y*width + x
			pix := boxed.Pix[row+x*4:]
			data[idx] = float32(pix[0]) / 255.0
			data[plane+idx] = float32(pix[1]) / 255.0
			data[2*plane+idx] = float32(pix[2]) / 255.0
		}
	}

	return data, params
}
