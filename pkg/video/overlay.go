package video

import (
	"fmt"
	"image"
	"image/color"

	"github.com/courtvision/player-clips/pkg/track"
	"gocv.io/x/gocv"
)

var trackedBoxColor = color.RGBA{0, 255, 0, 0}
var lostLabelColor = color.RGBA{0, 0, 255, 0}
var labelTextColor = color.RGBA{255, 255, 255, 0}

//annotateFrame plots every tracked player's current box and name on the
//frame. Lost players get a marker at their last known position instead.
func annotateFrame(frame *gocv.Mat, frameIdx int, players []*track.PlayerState) {
	for _, p := range players {
		bbox, ok := p.Frames[frameIdx]
		if ok {
			plotPlayerOnFrame(frame, bbox, p.Name, trackedBoxColor)
		} else {
			plotLostMarker(frame, p.LastBBox, p.Name, p.FramesLost)
		}
	}
}

//plotPlayerOnFrame draws the bounding box with a filled name label above it
func plotPlayerOnFrame(frame *gocv.Mat, bbox track.BBox, name string, plotColor color.RGBA) {
	rect := image.Rect(bbox.X1, bbox.Y1, bbox.X2, bbox.Y2)
	gocv.Rectangle(frame, rect, plotColor, 3)

	labelOrigin := image.Pt(rect.Min.X, rect.Min.Y-5)
	labelBackground := image.Rect(rect.Min.X, labelOrigin.Y-15, rect.Min.X+9*len(name)+10, labelOrigin.Y+5)
	gocv.Rectangle(frame, labelBackground, plotColor, -1) //thickness -1 == filled rectangle
	gocv.PutText(frame, name, labelOrigin, gocv.FontHersheyPlain, 1, labelTextColor, 2)
}

//plotLostMarker marks the last known position of a currently lost player
func plotLostMarker(frame *gocv.Mat, last track.BBox, name string, framesLost int) {
	cx, cy := last.Center()
	center := image.Pt(int(cx), int(cy))
	gocv.Circle(frame, center, 6, lostLabelColor, 2)

	label := fmt.Sprintf("%s? (%d)", name, framesLost)
	gocv.PutText(frame, label, image.Pt(center.X+8, center.Y), gocv.FontHersheyPlain, 1, lostLabelColor, 2)
}
