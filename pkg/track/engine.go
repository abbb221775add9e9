package track

import (
	"math"

	"gocv.io/x/gocv"
)

//Default matching parameters
const (
	DefaultIOUThreshold        = 0.3
	DefaultBaseSpeed           = 5.0
	DefaultMaxDistanceCap      = 500.0
	DefaultSimilarityThreshold = 0.4
	DefaultDistanceWeight      = 0.3
	DefaultHistogramWeight     = 0.7
	DefaultHistogramAlpha      = 0.1
)

//Extractor produces an appearance descriptor for a bbox crop of a frame
type Extractor interface {
	Extract(frame gocv.Mat, bbox BBox) []float64
}

//Pass identifies which matching pass produced an event
type Pass int

const (
	//PassContinuity matches by the track id held from the previous frame
	PassContinuity Pass = iota + 1
	//PassBootstrap matches a not-yet-sampled player by IOU against its initial bbox
	PassBootstrap
	//PassRematch re-acquires a lost player by hybrid distance + appearance score
	PassRematch
)

//EventKind classifies engine events delivered to the Observer
type EventKind int

const (
	//EventMatched is a continuity or bootstrap match
	EventMatched EventKind = iota
	//EventLost is a continuity break, the held track id disappeared
	EventLost
	//EventReacquired is a successful hybrid re-match after a loss
	EventReacquired
)

//Event describes one per-player matching outcome
type Event struct {
	Frame       int
	SelectionID int
	Name        string
	Kind        EventKind
	Pass        Pass
	TrackID     int
	Score       float64
	FramesLost  int
}

//Observer receives matching events. A nil observer is valid and ignored.
type Observer func(Event)

//Config holds the matching engine parameters
type Config struct {
	//IOUThreshold is the minimum IOU for the bootstrap pass
	IOUThreshold float64
	//BaseSpeed is the assumed player speed in pixels per lost frame
	BaseSpeed float64
	//MaxDistanceCap bounds the re-acquisition search radius in pixels
	MaxDistanceCap float64
	//SimilarityThreshold is the minimum combined score for a re-match
	SimilarityThreshold float64
	//DistanceWeight and HistogramWeight blend the two re-match scores
	DistanceWeight  float64
	HistogramWeight float64
	//HistogramAlpha is the EMA adaptation rate for reference descriptors
	HistogramAlpha float64
	//GlobalAssignment switches the re-acquisition pass from per-player
	//greedy claiming to one-to-one assignment across all lost players
	GlobalAssignment bool
}

//DefaultConfig returns the standard matching parameters
func DefaultConfig() Config {
	return Config{
		IOUThreshold:        DefaultIOUThreshold,
		BaseSpeed:           DefaultBaseSpeed,
		MaxDistanceCap:      DefaultMaxDistanceCap,
		SimilarityThreshold: DefaultSimilarityThreshold,
		DistanceWeight:      DefaultDistanceWeight,
		HistogramWeight:     DefaultHistogramWeight,
		HistogramAlpha:      DefaultHistogramAlpha,
	}
}

//Engine decides, frame by frame, which detection corresponds to which
//selected player. Players are always visited in selection order; that
//order resolves ambiguous claims. Within a frame at most one player may
//hold a given track id, enforced by the claimed set.
type Engine struct {
	cfg       Config
	extractor Extractor
	players   []*PlayerState
	observer  Observer
	claimed   map[int]struct{}
}

//NewEngine creates a matching engine over the given players. The slice
//order is the selection order and is load-bearing. observer may be nil.
func NewEngine(cfg Config, extractor Extractor, players []*PlayerState, observer Observer) *Engine {
	return &Engine{
		cfg:       cfg,
		extractor: extractor,
		players:   players,
		observer:  observer,
		claimed:   make(map[int]struct{}),
	}
}

//Players returns the engine's player states in selection order
func (e *Engine) Players() []*PlayerState {
	return e.players
}

//Finalize freezes every player's output size. fixed overrides the
//per-player derived size when non-nil.
func (e *Engine) Finalize(fixed *Size) {
	for _, p := range e.players {
		p.Finalize(fixed)
	}
}

//ProcessFrame runs the three matching passes for one frame, in order:
//continuity by held track id, IOU bootstrap for players without a
//reference descriptor, then hybrid re-identification for lost players.
func (e *Engine) ProcessFrame(frame gocv.Mat, frameIdx int, detections []Detection) {
	for id := range e.claimed {
		delete(e.claimed, id)
	}
	for _, p := range e.players {
		p.beginFrame()
	}

	e.passContinuity(frame, frameIdx, detections)
	e.passBootstrap(frame, frameIdx, detections)
	if e.cfg.GlobalAssignment {
		e.passRematchGlobal(frame, frameIdx, detections)
	} else {
		e.passRematch(frame, frameIdx, detections)
	}
}

func (e *Engine) passContinuity(frame gocv.Mat, frameIdx int, detections []Detection) {
	for _, p := range e.players {
		if !p.HasTrack {
			continue
		}

		matched := false
		for _, det := range detections {
			if !det.HasTrackID || det.TrackID != p.TrackID {
				continue
			}
			p.recordMatch(frameIdx, det.TrackID, det.BBox)
			e.claimed[det.TrackID] = struct{}{}
			if p.ReferenceHist != nil {
				sample := e.extractor.Extract(frame, det.BBox)
				p.ReferenceHist = UpdateEMA(p.ReferenceHist, sample, e.cfg.HistogramAlpha)
			}
			e.emit(Event{
				Frame:       frameIdx,
				SelectionID: p.SelectionID,
				Name:        p.Name,
				Kind:        EventMatched,
				Pass:        PassContinuity,
				TrackID:     det.TrackID,
				Score:       1.0,
			})
			matched = true
			break
		}

		if !matched {
			lostID := p.TrackID
			p.markLost(frameIdx)
			e.emit(Event{
				Frame:       frameIdx,
				SelectionID: p.SelectionID,
				Name:        p.Name,
				Kind:        EventLost,
				Pass:        PassContinuity,
				TrackID:     lostID,
				FramesLost:  p.FramesLost,
			})
		}
	}
}

func (e *Engine) passBootstrap(frame gocv.Mat, frameIdx int, detections []Detection) {
	for _, p := range e.players {
		if p.ReferenceHist != nil {
			continue
		}

		bestIOU := 0.0
		bestIdx := -1
		for i, det := range detections {
			if !det.HasTrackID {
				continue
			}
			if _, taken := e.claimed[det.TrackID]; taken {
				continue
			}
			v := IOU(p.LastBBox, det.BBox)
			if v > bestIOU && v >= e.cfg.IOUThreshold {
				bestIOU = v
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			p.markUnmatched(frameIdx)
			continue
		}

		det := detections[bestIdx]
		p.recordMatch(frameIdx, det.TrackID, det.BBox)
		e.claimed[det.TrackID] = struct{}{}
		p.ReferenceHist = e.extractor.Extract(frame, det.BBox)
		e.emit(Event{
			Frame:       frameIdx,
			SelectionID: p.SelectionID,
			Name:        p.Name,
			Kind:        EventMatched,
			Pass:        PassBootstrap,
			TrackID:     det.TrackID,
			Score:       bestIOU,
		})
	}
}

func (e *Engine) passRematch(frame gocv.Mat, frameIdx int, detections []Detection) {
	for _, p := range e.players {
		if p.HasTrack || p.ReferenceHist == nil {
			continue
		}

		cand, ok := e.bestCandidate(frame, p, detections)
		if !ok {
			p.markUnmatched(frameIdx)
			continue
		}

		e.acceptRematch(frameIdx, p, cand)
	}
}

//rematchCandidate is a scored detection considered during re-acquisition
type rematchCandidate struct {
	trackID int
	bbox    BBox
	hist    []float64
	score   float64
}

//bestCandidate scores every unclaimed detection within the player's
//search radius and returns the highest-scoring one at or above the
//similarity threshold. First candidate reaching the best score wins.
func (e *Engine) bestCandidate(frame gocv.Mat, p *PlayerState, detections []Detection) (rematchCandidate, bool) {
	radius := math.Min(e.cfg.BaseSpeed*float64(p.FramesLost), e.cfg.MaxDistanceCap)

	var best rematchCandidate
	for _, det := range detections {
		if !det.HasTrackID {
			continue
		}
		if _, taken := e.claimed[det.TrackID]; taken {
			continue
		}

		cand, ok := e.scoreCandidate(frame, p, det, radius)
		if !ok {
			continue
		}
		if cand.score > best.score {
			best = cand
		}
	}

	return best, best.score > 0
}

//scoreCandidate computes the combined distance + appearance score for one
//detection, rejecting candidates outside the radius or below threshold
func (e *Engine) scoreCandidate(frame gocv.Mat, p *PlayerState, det Detection, radius float64) (rematchCandidate, bool) {
	dist := CenterDistance(p.LastBBox, det.BBox)
	if dist > radius {
		return rematchCandidate{}, false
	}

	distScore := 1.0
	if radius > 0 {
		distScore = 1.0 - dist/radius
	}

	hist := e.extractor.Extract(frame, det.BBox)
	histScore := (Compare(p.ReferenceHist, hist) + 1.0) / 2.0

	combined := e.cfg.DistanceWeight*distScore + e.cfg.HistogramWeight*histScore
	if combined < e.cfg.SimilarityThreshold {
		return rematchCandidate{}, false
	}

	return rematchCandidate{
		trackID: det.TrackID,
		bbox:    det.BBox,
		hist:    hist,
		score:   combined,
	}, true
}

//acceptRematch commits a re-acquisition: the reference descriptor adapts
//faster than usual since pose likely changed during the occlusion
func (e *Engine) acceptRematch(frameIdx int, p *PlayerState, cand rematchCandidate) {
	lostFor := p.FramesLost
	p.recordMatch(frameIdx, cand.trackID, cand.bbox)
	e.claimed[cand.trackID] = struct{}{}

	alpha := math.Min(1.0, e.cfg.HistogramAlpha*1.5)
	p.ReferenceHist = UpdateEMA(p.ReferenceHist, cand.hist, alpha)

	e.emit(Event{
		Frame:       frameIdx,
		SelectionID: p.SelectionID,
		Name:        p.Name,
		Kind:        EventReacquired,
		Pass:        PassRematch,
		TrackID:     cand.trackID,
		Score:       cand.score,
		FramesLost:  lostFor,
	})
}

func (e *Engine) emit(ev Event) {
	if e.observer != nil {
		e.observer(ev)
	}
}
