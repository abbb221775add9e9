package track

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestSolveMaxAssignment(t *testing.T) {
	scores := [][]float64{
		{0.97, 0.88},
		{0.85, 0.0},
	}

	//0.88 + 0.85 beats 0.97 alone
	pairs := solveMaxAssignment(scores)
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 assignments, got %d (%v)", len(pairs), pairs)
	}

	got := map[int]int{}
	for _, p := range pairs {
		got[p[0]] = p[1]
	}
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("Expected assignment {0:1, 1:0}, got %v", got)
	}
}

func TestSolveMaxAssignmentRectangular(t *testing.T) {
	//more candidates than players: padding must not leak out-of-range columns
	scores := [][]float64{
		{0.2, 0.9, 0.5},
	}
	pairs := solveMaxAssignment(scores)
	if len(pairs) != 1 {
		t.Fatalf("Expected 1 assignment, got %d (%v)", len(pairs), pairs)
	}
	if pairs[0][0] != 0 || pairs[0][1] != 1 {
		t.Errorf("Expected pair (0,1), got %v", pairs[0])
	}
}

//Greedy claiming lets an earlier-selected player with a huge search radius
//grab the candidate a later player needs. Global assignment resolves the
//same frame one-to-one.
func TestGlobalAssignmentAvoidsStarvation(t *testing.T) {
	var frame gocv.Mat
	hist := []float64{1, 0, 1, 0}
	ext := &stubExtractor{deflt: hist}

	//a has been lost for 100 frames: radius capped at 500px
	//b has been lost for 4 frames: radius 20px
	makePlayers := func() (*PlayerState, *PlayerState) {
		a := NewPlayerState(0, "alice", 0, BBox{X1: 80, Y1: 60, X2: 120, Y2: 140}) //center (100, 100)
		a.ReferenceHist = hist
		a.FramesLost = 100

		b := NewPlayerState(1, "bob", 0, BBox{X1: 120, Y1: 60, X2: 160, Y2: 140}) //center (140, 100)
		b.ReferenceHist = hist
		b.FramesLost = 4
		return a, b
	}

	//c1 center (150, 100): 50px from a, 10px from b
	//c2 center (300, 100): 200px from a, out of b's radius
	detections := []Detection{
		det(1, BBox{X1: 130, Y1: 60, X2: 170, Y2: 140}),
		det(2, BBox{X1: 280, Y1: 60, X2: 320, Y2: 140}),
	}

	a, b := makePlayers()
	greedy := NewEngine(DefaultConfig(), ext, []*PlayerState{a, b}, nil)
	greedy.ProcessFrame(frame, 100, detections)

	if !a.HasTrack || a.TrackID != 1 {
		t.Fatalf("Greedy: expected alice to grab the near candidate, got HasTrack=%v TrackID=%d", a.HasTrack, a.TrackID)
	}
	if b.HasTrack {
		t.Fatal("Greedy: bob's only reachable candidate was claimed, he must stay lost")
	}

	a, b = makePlayers()
	cfg := DefaultConfig()
	cfg.GlobalAssignment = true
	global := NewEngine(cfg, ext, []*PlayerState{a, b}, nil)
	global.ProcessFrame(frame, 100, detections)

	if !a.HasTrack || a.TrackID != 2 {
		t.Errorf("Global: expected alice on the far candidate, got HasTrack=%v TrackID=%d", a.HasTrack, a.TrackID)
	}
	if !b.HasTrack || b.TrackID != 1 {
		t.Errorf("Global: expected bob on the near candidate, got HasTrack=%v TrackID=%d", b.HasTrack, b.TrackID)
	}
	if b.FramesLost != 0 {
		t.Errorf("Global: expected bob's lost counter reset, got %d", b.FramesLost)
	}
}

func TestGlobalAssignmentNoCandidates(t *testing.T) {
	var frame gocv.Mat
	hist := []float64{1, 0, 1, 0}

	p := NewPlayerState(0, "alice", 0, BBox{X1: 80, Y1: 60, X2: 120, Y2: 140})
	p.ReferenceHist = hist
	p.FramesLost = 2

	cfg := DefaultConfig()
	cfg.GlobalAssignment = true
	engine := NewEngine(cfg, &stubExtractor{deflt: hist}, []*PlayerState{p}, nil)
	engine.ProcessFrame(frame, 7, nil)

	if p.HasTrack {
		t.Error("No candidates, player must stay lost")
	}
	if p.FramesLost != 3 {
		t.Errorf("Expected FramesLost 3, got %d", p.FramesLost)
	}
	if len(p.MissingFrames) != 1 || p.MissingFrames[0] != 7 {
		t.Errorf("Expected missing frames [7], got %v", p.MissingFrames)
	}
}
