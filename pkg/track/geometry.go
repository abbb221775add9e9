package track

import "math"

//IOU calculates Intersection over Union between two bounding boxes.
//Returns a value in [0, 1]; 0 when the union area is zero.
func IOU(a, b BBox) float64 {
	x1 := maxInt(a.X1, b.X1)
	y1 := maxInt(a.Y1, b.Y1)
	x2 := minInt(a.X2, b.X2)
	y2 := minInt(a.Y2, b.Y2)

	intersection := float64(maxInt(0, x2-x1)) * float64(maxInt(0, y2-y1))
	union := float64(a.Width()*a.Height()) + float64(b.Width()*b.Height()) - intersection
	if union <= 0 {
		return 0.0
	}

	return intersection / union
}

//CenterDistance returns the euclidean distance in pixels between the centers of two bounding boxes
func CenterDistance(a, b BBox) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(ax-bx, ay-by)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
