package track

import "testing"

func TestRecordMatchResetsLostCounter(t *testing.T) {
	p := NewPlayerState(0, "alice", 0, BBox{X1: 0, Y1: 0, X2: 40, Y2: 80})
	p.FramesLost = 7

	p.recordMatch(3, 11, BBox{X1: 5, Y1: 5, X2: 45, Y2: 85})

	if p.FramesLost != 0 {
		t.Errorf("Expected FramesLost 0 after a match, got %d", p.FramesLost)
	}
	if !p.HasTrack || p.TrackID != 11 {
		t.Errorf("Expected track 11 held, got HasTrack=%v TrackID=%d", p.HasTrack, p.TrackID)
	}
	if _, ok := p.Frames[3]; !ok {
		t.Error("Expected frame 3 recorded in history")
	}
}

func TestMaxBBoxNeverShrinks(t *testing.T) {
	p := NewPlayerState(0, "alice", 0, BBox{X1: 0, Y1: 0, X2: 40, Y2: 80})

	p.recordMatch(0, 1, BBox{X1: 0, Y1: 0, X2: 60, Y2: 100})
	if p.MaxBBox.Width != 60 || p.MaxBBox.Height != 100 {
		t.Fatalf("Expected max bbox 60x100, got %dx%d", p.MaxBBox.Width, p.MaxBBox.Height)
	}

	//smaller box must not shrink the max
	p.recordMatch(1, 1, BBox{X1: 0, Y1: 0, X2: 30, Y2: 50})
	if p.MaxBBox.Width != 60 || p.MaxBBox.Height != 100 {
		t.Errorf("Max bbox shrank to %dx%d", p.MaxBBox.Width, p.MaxBBox.Height)
	}

	//wider but shorter box only grows the width
	p.recordMatch(2, 1, BBox{X1: 0, Y1: 0, X2: 80, Y2: 90})
	if p.MaxBBox.Width != 80 || p.MaxBBox.Height != 100 {
		t.Errorf("Expected max bbox 80x100, got %dx%d", p.MaxBBox.Width, p.MaxBBox.Height)
	}
}

func TestSingleLostIncrementPerFrame(t *testing.T) {
	p := NewPlayerState(0, "alice", 0, BBox{X1: 0, Y1: 0, X2: 40, Y2: 80})
	p.HasTrack = true
	p.TrackID = 5

	//continuity break and a failed re-match in the same frame
	p.beginFrame()
	p.markLost(4)
	p.markUnmatched(4)

	if p.FramesLost != 1 {
		t.Errorf("Expected FramesLost 1, got %d", p.FramesLost)
	}
	if len(p.MissingFrames) != 1 || p.MissingFrames[0] != 4 {
		t.Errorf("Expected missing frames [4], got %v", p.MissingFrames)
	}
}

func TestUnmatchedBeforeSelectionFrameIgnored(t *testing.T) {
	p := NewPlayerState(0, "alice", 10, BBox{X1: 0, Y1: 0, X2: 40, Y2: 80})

	p.beginFrame()
	p.markUnmatched(3)

	if p.FramesLost != 0 {
		t.Errorf("Expected FramesLost 0 before the selection frame, got %d", p.FramesLost)
	}
	if len(p.MissingFrames) != 0 {
		t.Errorf("Expected no missing frames before the selection frame, got %v", p.MissingFrames)
	}
}

func TestFinalizeDerivedOutputSize(t *testing.T) {
	p := NewPlayerState(0, "alice", 0, BBox{X1: 0, Y1: 0, X2: 40, Y2: 80})
	p.MaxBBox = Size{Width: 100, Height: 50}

	p.Finalize(nil)

	//ceil(100*1.2)=120 even, ceil(50*1.2)=60 even
	if p.OutputSize.Width != 120 || p.OutputSize.Height != 60 {
		t.Errorf("Expected output 120x60, got %dx%d", p.OutputSize.Width, p.OutputSize.Height)
	}
}

func TestFinalizeRoundsUpToEven(t *testing.T) {
	p := NewPlayerState(0, "alice", 0, BBox{X1: 0, Y1: 0, X2: 40, Y2: 80})
	p.MaxBBox = Size{Width: 99, Height: 33}

	p.Finalize(nil)

	//ceil(99*1.2)=119 -> 120, ceil(33*1.2)=40 even already
	if p.OutputSize.Width != 120 || p.OutputSize.Height != 40 {
		t.Errorf("Expected output 120x40, got %dx%d", p.OutputSize.Width, p.OutputSize.Height)
	}
}

func TestFinalizeFixedOverride(t *testing.T) {
	p := NewPlayerState(0, "alice", 0, BBox{X1: 0, Y1: 0, X2: 40, Y2: 80})
	p.MaxBBox = Size{Width: 100, Height: 50}

	fixed := Size{Width: 640, Height: 480}
	p.Finalize(&fixed)

	if p.OutputSize != fixed {
		t.Errorf("Expected fixed output %+v, got %+v", fixed, p.OutputSize)
	}
}
