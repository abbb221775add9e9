package track

import (
	"image"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

//Default histogram bin counts for the hue and saturation channels
const (
	DefaultBinsH = 50
	DefaultBinsS = 50
)

//Inner-region margins discarded from each crop before measuring color,
//to suppress background pixels around the player
const (
	histMarginX = 0.2
	histMarginY = 0.1
)

//Appearance extracts compact color descriptors from bounding box crops.
//A descriptor is the concatenation of a hue histogram (BinsH bins over
//0-180) and a saturation histogram (BinsS bins over 0-256), each min-max
//normalized to [0, 1] independently.
type Appearance struct {
	BinsH int
	BinsS int
}

//NewAppearance returns an Appearance with the default bin counts
func NewAppearance() *Appearance {
	return &Appearance{BinsH: DefaultBinsH, BinsS: DefaultBinsS}
}

//VectorLen returns the length of every descriptor this model produces
func (a *Appearance) VectorLen() int {
	return a.BinsH + a.BinsS
}

//Extract computes the descriptor for the given bbox crop of frame.
//The bbox is clipped to the frame bounds; an empty or degenerate crop
//yields a zero vector of VectorLen() rather than an error, so scoring
//against it never fails.
func (a *Appearance) Extract(frame gocv.Mat, bbox BBox) []float64 {
	vec := make([]float64, a.VectorLen())
	if frame.Empty() {
		return vec
	}

	x1 := clampInt(bbox.X1, 0, frame.Cols())
	y1 := clampInt(bbox.Y1, 0, frame.Rows())
	x2 := clampInt(bbox.X2, 0, frame.Cols())
	y2 := clampInt(bbox.Y2, 0, frame.Rows())
	if x2 <= x1 || y2 <= y1 {
		return vec
	}

	crop := frame.Region(image.Rect(x1, y1, x2, y2))
	defer crop.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(crop, &hsv, gocv.ColorBGRToHSV)

	//measure only the inner region of the crop, same idea as sampling the
	//middle of the uniform instead of the whole bounding box
	cw, ch := hsv.Cols(), hsv.Rows()
	mx := int(float64(cw) * histMarginX)
	my := int(float64(ch) * histMarginY)
	ix2 := maxInt(mx+1, cw-mx)
	iy2 := maxInt(my+1, ch-my)

	inner := hsv.Region(image.Rect(mx, my, ix2, iy2))
	defer inner.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	histH := gocv.NewMat()
	defer histH.Close()
	gocv.CalcHist([]gocv.Mat{inner}, []int{0}, mask, &histH, []int{a.BinsH}, []float64{0, 180}, false)
	gocv.Normalize(histH, &histH, 0, 1, gocv.NormMinMax)

	histS := gocv.NewMat()
	defer histS.Close()
	gocv.CalcHist([]gocv.Mat{inner}, []int{1}, mask, &histS, []int{a.BinsS}, []float64{0, 256}, false)
	gocv.Normalize(histS, &histS, 0, 1, gocv.NormMinMax)

	//clip to [0,1], NORM_MINMAX can overshoot by float error
	for i := 0; i < a.BinsH; i++ {
		vec[i] = clampFloat(float64(histH.GetFloatAt(i, 0)), 0, 1)
	}
	for i := 0; i < a.BinsS; i++ {
		vec[a.BinsH+i] = clampFloat(float64(histS.GetFloatAt(i, 0)), 0, 1)
	}

	return vec
}

//Compare returns the Pearson correlation between two descriptors, in
//[-1, 1]: 1 for identical shape, -1 for maximally anti-correlated.
//When either vector has zero variance the correlation is undefined;
//elementwise-equal inputs compare as 1, anything else as 0.
func Compare(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) {
		if equalVectors(a, b) {
			return 1.0
		}
		return 0.0
	}

	return r
}

//UpdateEMA blends a new sample into the reference descriptor with an
//exponential moving average: (1-alpha)*ref + alpha*sample. The inputs are
//not modified.
func UpdateEMA(ref, sample []float64, alpha float64) []float64 {
	out := make([]float64, len(ref))
	for i := range ref {
		out[i] = (1-alpha)*ref[i] + alpha*sample[i]
	}
	return out
}

func equalVectors(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
