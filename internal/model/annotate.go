package model

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Overlay drawing settings.
const (
	boxThickness  = 2
	textScale     = 0.6
	textThickness = 2
	textPad       = 4
)

var palette = []color.RGBA{
	{255, 56, 56, 0},
	{255, 157, 151, 0},
	{255, 112, 31, 0},
	{255, 178, 29, 0},
	{207, 210, 49, 0},
	{72, 249, 10, 0},
	{146, 204, 23, 0},
	{61, 219, 134, 0},
	{26, 147, 52, 0},
	{0, 212, 187, 0},
	{44, 153, 168, 0},
	{0, 194, 255, 0},
	{52, 69, 147, 0},
	{100, 115, 255, 0},
	{0, 24, 236, 0},
	{132, 56, 255, 0},
	{82, 0, 133, 0},
	{203, 56, 255, 0},
	{255, 149, 200, 0},
	{255, 55, 199, 0},
}

// ColorFor returns the overlay color for a class id.
func ColorFor(classID int) color.RGBA {
	if classID < 0 {
		classID = -classID
	}
	return palette[classID%len(palette)]
}

// Caption is the text drawn above a detection box.
func Caption(d Detection) string {
	return fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
}

// Annotate returns a copy of frame with every detection drawn as a box and
// a caption. The caller owns the returned Mat.
func Annotate(frame *gocv.Mat, result *Result) gocv.Mat {
	out := frame.Clone()
	if result == nil {
		return out
	}

	for _, d := range result.Detections {
		col := ColorFor(d.ClassID)
		gocv.Rectangle(&out, d.Box, col, boxThickness)

		text := Caption(d)
		size := gocv.GetTextSize(text, gocv.FontHersheySimplex, textScale, textThickness)

		top := d.Box.Min.Y - size.Y - 2*textPad
		if top < 0 {
			top = d.Box.Min.Y
		}
		label := image.Rect(d.Box.Min.X, top, d.Box.Min.X+size.X+2*textPad, top+size.Y+2*textPad)
		gocv.Rectangle(&out, label, col, -1)
		gocv.PutText(&out, text, image.Pt(label.Min.X+textPad, label.Max.Y-textPad),
			gocv.FontHersheySimplex, textScale, color.RGBA{255, 255, 255, 0}, textThickness)
	}

	return out
}
