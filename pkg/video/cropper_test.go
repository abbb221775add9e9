package video

import (
	"testing"

	"github.com/courtvision/player-clips/pkg/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"Bob", "bob"},
		{"Nguyễn Văn A", "nguyen_van_a"},
		{"Trần", "tran"},
		{"Player #1", "player_1"},
		{"  spaced   out  ", "spaced_out"},
		{"ALL-CAPS", "all_caps"},
		{"!!!", "player_unknown"},
		{"", "player_unknown"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, SanitizeName(c.in), "input %q", c.in)
	}
}

func TestClipFilenamesDuplicates(t *testing.T) {
	players := []PlayerTrack{
		{Name: "Bob"},
		{Name: "Alice"},
		{Name: "bob!"},
	}
	//only colliding names get a numeric suffix
	assert.Equal(t, []string{"bob_1", "alice", "bob_2"}, clipFilenames(players))
}

func TestClipFilenamesUnique(t *testing.T) {
	players := []PlayerTrack{{Name: "Alice"}, {Name: "Bob"}}
	assert.Equal(t, []string{"alice", "bob"}, clipFilenames(players))
}

func TestCropAndPadInsideFrame(t *testing.T) {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()

	bbox := track.BBox{X1: 40, Y1: 40, X2: 60, Y2: 60}
	size := track.Size{Width: 20, Height: 20}

	canvas := CropAndPad(frame, bbox, size)
	defer canvas.Close()

	require.Equal(t, 20, canvas.Cols())
	require.Equal(t, 20, canvas.Rows())

	//bbox fully inside the frame: every canvas pixel comes from the source
	mean := canvas.Mean()
	assert.InDelta(t, 10.0, mean.Val1, 0.5)
	assert.InDelta(t, 20.0, mean.Val2, 0.5)
	assert.InDelta(t, 30.0, mean.Val3, 0.5)
}

func TestCropAndPadOutsideFrame(t *testing.T) {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()

	//crop window entirely off the frame stays black
	bbox := track.BBox{X1: 500, Y1: 500, X2: 540, Y2: 560}
	canvas := CropAndPad(frame, bbox, track.Size{Width: 40, Height: 60})
	defer canvas.Close()

	mean := canvas.Mean()
	assert.InDelta(t, 0.0, mean.Val1, 0.001)
	assert.InDelta(t, 0.0, mean.Val2, 0.001)
	assert.InDelta(t, 0.0, mean.Val3, 0.001)
}

func TestCropAndPadPartialOverhang(t *testing.T) {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(100, 100, 100, 0), 100, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()

	//center at (0, 50): the left half of the 20x20 window is off-frame
	bbox := track.BBox{X1: -10, Y1: 40, X2: 10, Y2: 60}
	canvas := CropAndPad(frame, bbox, track.Size{Width: 20, Height: 20})
	defer canvas.Close()

	mean := canvas.Mean()
	assert.InDelta(t, 50.0, mean.Val1, 1.0)
}

func TestBlackFrameSize(t *testing.T) {
	black := BlackFrame(track.Size{Width: 64, Height: 48})
	defer black.Close()

	assert.Equal(t, 64, black.Cols())
	assert.Equal(t, 48, black.Rows())
	assert.InDelta(t, 0.0, black.Mean().Val1, 0.001)
}
