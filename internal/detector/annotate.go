package detector

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	boneColor    = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	jointColor   = color.RGBA{R: 255, G: 64, B: 64, A: 0}
	captionColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// toPixel maps a normalized point onto the frame.
func toPixel(p Point, cols, rows int) image.Point {
	return image.Pt(int(p.X*float64(cols)), int(p.Y*float64(rows)))
}

// Annotate draws the hand skeleton onto frame in place.
func Annotate(frame *gocv.Mat, hand HandLandmarks) {
	if frame == nil || frame.Empty() {
		return
	}
	cols, rows := frame.Cols(), frame.Rows()

	for _, c := range Connections {
		a := toPixel(hand.Points[c[0]], cols, rows)
		b := toPixel(hand.Points[c[1]], cols, rows)
		gocv.Line(frame, a, b, boneColor, 2)
	}
	for _, p := range hand.Points {
		gocv.Circle(frame, toPixel(p, cols, rows), 4, jointColor, -1)
	}
}

// Caption writes text in the top-left corner of frame.
func Caption(frame *gocv.Mat, text string) {
	if frame == nil || frame.Empty() || text == "" {
		return
	}
	gocv.PutText(frame, text, image.Pt(10, 40), gocv.FontHersheySimplex, 1.2, captionColor, 2)
}
