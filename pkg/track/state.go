package track

import "math"

//OutputPadding is the margin factor applied to the max bounding box when
//deriving a player's output canvas size
const OutputPadding = 1.2

//PlayerState is the mutable tracking record for one selected player.
//It is created once before the first frame, mutated exactly once per
//frame by the matching engine, and finalized after the last frame.
type PlayerState struct {
	SelectionID    int
	Name           string
	SelectionFrame int

	//TrackID is the detector identifier currently believed to correspond
	//to this player; only meaningful while HasTrack is set
	TrackID  int
	HasTrack bool

	//LastBBox is the most recent known rectangle, seeded from the
	//user-supplied initial bbox
	LastBBox BBox

	//ReferenceHist is nil until the player's appearance has been sampled
	//once; afterwards its length never changes
	ReferenceHist []float64

	//FramesLost counts consecutive frames without a match since the last
	//successful one
	FramesLost int

	//Frames holds a bbox for every frame where the player was located
	Frames map[int]BBox

	//MaxBBox is the running component-wise maximum over all recorded
	//bboxes; it never shrinks
	MaxBBox Size

	//MissingFrames lists frames at or after the selection frame where no
	//match was found
	MissingFrames []int

	//OutputSize is computed once by Finalize after processing ends
	OutputSize Size

	//penalized marks that FramesLost was already incremented this frame,
	//so a continuity break followed by a failed re-match counts as one
	//lost frame, not two
	penalized bool
}

//NewPlayerState creates the state record for one selected player
func NewPlayerState(selectionID int, name string, selectionFrame int, initial BBox) *PlayerState {
	return &PlayerState{
		SelectionID:    selectionID,
		Name:           name,
		SelectionFrame: selectionFrame,
		LastBBox:       initial,
		Frames:         make(map[int]BBox),
		MissingFrames:  make([]int, 0),
	}
}

//beginFrame resets the per-frame scratch flags
func (p *PlayerState) beginFrame() {
	p.penalized = false
}

//recordMatch commits a successful match for this frame
func (p *PlayerState) recordMatch(frameIdx, trackID int, bbox BBox) {
	p.TrackID = trackID
	p.HasTrack = true
	p.LastBBox = bbox
	p.Frames[frameIdx] = bbox
	p.FramesLost = 0
	if w := bbox.Width(); w > p.MaxBBox.Width {
		p.MaxBBox.Width = w
	}
	if h := bbox.Height(); h > p.MaxBBox.Height {
		p.MaxBBox.Height = h
	}
}

//markLost drops the held track id after a continuity break. The lost
//counter is bumped right away so the re-acquisition search radius reflects
//the current streak.
func (p *PlayerState) markLost(frameIdx int) {
	p.HasTrack = false
	if frameIdx >= p.SelectionFrame {
		p.FramesLost++
		p.penalized = true
	}
}

//markUnmatched records that no pass produced a match for this frame
func (p *PlayerState) markUnmatched(frameIdx int) {
	if frameIdx < p.SelectionFrame {
		return
	}
	if !p.penalized {
		p.FramesLost++
		p.penalized = true
	}
	p.MissingFrames = append(p.MissingFrames, frameIdx)
}

//Finalize freezes the player's output canvas size: the caller-supplied
//fixed size when given, otherwise the max bbox padded by OutputPadding and
//rounded up to even dimensions for encoder alignment.
func (p *PlayerState) Finalize(fixed *Size) {
	if fixed != nil {
		p.OutputSize = *fixed
		return
	}
	p.OutputSize = Size{
		Width:  evenCeil(float64(p.MaxBBox.Width) * OutputPadding),
		Height: evenCeil(float64(p.MaxBBox.Height) * OutputPadding),
	}
}

func evenCeil(v float64) int {
	n := int(math.Ceil(v))
	if n%2 != 0 {
		n++
	}
	return n
}
