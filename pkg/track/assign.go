package track

import (
	hungarian "github.com/arthurkushman/go-hungarian"
	"gocv.io/x/gocv"
)

//passRematchGlobal solves re-acquisition as a one-to-one assignment across
//all lost players at once instead of letting each player claim the first
//sufficient candidate in selection order. A later player can no longer be
//starved of its true best match by an earlier one.
func (e *Engine) passRematchGlobal(frame gocv.Mat, frameIdx int, detections []Detection) {
	lost := make([]*PlayerState, 0, len(e.players))
	for _, p := range e.players {
		if !p.HasTrack && p.ReferenceHist != nil {
			lost = append(lost, p)
		}
	}
	if len(lost) == 0 {
		return
	}

	candIdx := make([]int, 0, len(detections))
	for i, det := range detections {
		if !det.HasTrackID {
			continue
		}
		if _, taken := e.claimed[det.TrackID]; taken {
			continue
		}
		candIdx = append(candIdx, i)
	}
	if len(candIdx) == 0 {
		for _, p := range lost {
			p.markUnmatched(frameIdx)
		}
		return
	}

	//score matrix: rows are lost players, columns are candidate
	//detections; invalid pairs (outside radius or below threshold) stay at
	//zero and are never accepted
	scores := make([][]float64, len(lost))
	cands := make([][]rematchCandidate, len(lost))
	for i, p := range lost {
		scores[i] = make([]float64, len(candIdx))
		cands[i] = make([]rematchCandidate, len(candIdx))
		radius := minFloat(e.cfg.BaseSpeed*float64(p.FramesLost), e.cfg.MaxDistanceCap)
		for j, di := range candIdx {
			cand, ok := e.scoreCandidate(frame, p, detections[di], radius)
			if !ok {
				continue
			}
			scores[i][j] = cand.score
			cands[i][j] = cand
		}
	}

	matched := make(map[int]struct{}, len(lost))
	for _, m := range solveMaxAssignment(scores) {
		i, j := m[0], m[1]
		if scores[i][j] <= 0 {
			continue
		}
		e.acceptRematch(frameIdx, lost[i], cands[i][j])
		matched[i] = struct{}{}
	}

	for i, p := range lost {
		if _, ok := matched[i]; !ok {
			p.markUnmatched(frameIdx)
		}
	}
}

//solveMaxAssignment runs the Hungarian algorithm on a possibly rectangular
//score matrix, padding it square with zeros, and returns (row, col) pairs
//within the original bounds.
func solveMaxAssignment(scores [][]float64) [][2]int {
	rows := len(scores)
	if rows == 0 {
		return nil
	}
	cols := len(scores[0])
	if cols == 0 {
		return nil
	}

	size := maxInt(rows, cols)
	padded := make([][]float64, size)
	for i := range padded {
		padded[i] = make([]float64, size)
		if i < rows {
			copy(padded[i], scores[i])
		}
	}

	assignments := hungarian.SolveMax(padded)
	matches := make([][2]int, 0, rows)
	for row, colMap := range assignments {
		if row >= rows {
			continue
		}
		for col := range colMap {
			if col < cols {
				matches = append(matches, [2]int{row, col})
			}
			break
		}
	}
	return matches
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
