package annotate

import "image/color"

// classColors is the palette used to paint detection boxes. Colors are
// assigned by class id modulo the palette length so the same class always
// renders in the same color.
var classColors = []color.RGBA{
	{R: 0, G: 255, B: 0, A: 255},   // green
	{R: 0, G: 0, B: 255, A: 255},   // blue
	{R: 255, G: 0, B: 0, A: 255},   // red
	{R: 0, G: 255, B: 255, A: 255}, // cyan
	{R: 255, G: 0, B: 255, A: 255}, // magenta
	{R: 255, G: 255, B: 0, A: 255}, // yellow
	{R: 255, G: 128, B: 0, A: 255}, // orange
	{R: 0, G: 128, B: 255, A: 255}, // light blue
	{R: 255, G: 128, B: 128, A: 255},
	{R: 128, G: 255, B: 0, A: 255},
}

// ClassColor returns the palette color for a class id.
func ClassColor(classID int) color.RGBA {
	if classID < 0 {
		classID = -classID
	}
	return classColors[classID%len(classColors)]
}
