package track

//BBox is an axis-aligned bounding rectangle in pixel coordinates, x1/y1 top-left, x2/y2 bottom-right
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

//Valid reports whether the rectangle has positive width and height
func (b BBox) Valid() bool {
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

//Width returns the rectangle's width in pixels
func (b BBox) Width() int {
	return b.X2 - b.X1
}

//Height returns the rectangle's height in pixels
func (b BBox) Height() int {
	return b.Y2 - b.Y1
}

//Center returns the rectangle's center point
func (b BBox) Center() (float64, float64) {
	return float64(b.X1+b.X2) / 2.0, float64(b.Y1+b.Y2) / 2.0
}

//Size is a width/height pair in pixels
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

//Detection is a single detector output for one frame. TrackID is only
//meaningful when HasTrackID is set; the detector may omit it or silently
//change it after an occlusion.
type Detection struct {
	BBox       BBox
	TrackID    int
	HasTrackID bool
	Confidence float64
}
