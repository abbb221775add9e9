package video

import (
	"log"
	"path"
	"sort"
	"strconv"

	"github.com/courtvision/player-clips/pkg/track"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

//RunConfig configures one selective tracking run
type RunConfig struct {
	VideoPath     string
	SelectionPath string
	//OutputPath receives the tracking data JSON; empty skips persistence
	OutputPath string
	//DetectorScript is the external YOLO+ByteTrack entrypoint
	DetectorScript string
	//ModelPath is passed through opaquely to the detector
	ModelPath string
	//MaxFrames caps processing when > 0
	MaxFrames int
	//Matching holds the engine parameters
	Matching track.Config
	//FixedOutputSize overrides the derived per-player output size
	FixedOutputSize *track.Size
	//DebugVideoPath, when set, writes an annotated copy of the source
	//with the tracked boxes drawn on it
	DebugVideoPath string
	//Observer receives engine events; nil gets the default log observer
	Observer track.Observer
}

//LogObserver logs matching engine events in a compact one-line format
func LogObserver(ev track.Event) {
	switch ev.Kind {
	case track.EventLost:
		log.Printf("Track: frame %d: lost '%s' (track %d, %d frames lost)", ev.Frame, ev.Name, ev.TrackID, ev.FramesLost)
	case track.EventReacquired:
		log.Printf("Track: frame %d: re-matched '%s' to track %d, score %.2f after %d lost frames", ev.Frame, ev.Name, ev.TrackID, ev.Score, ev.FramesLost)
	case track.EventMatched:
		if ev.Pass == track.PassBootstrap {
			log.Printf("Track: frame %d: bootstrapped '%s' to track %d, IOU %.2f", ev.Frame, ev.Name, ev.TrackID, ev.Score)
		}
	}
}

//RunSelectiveTracking follows the selected players through the whole video
//and returns the per-player tracking data. Detector failures for a single
//frame degrade to zero detections; the run only stops on stream
//exhaustion or the frame cap.
func RunSelectiveTracking(cfg RunConfig) (*TrackingData, error) {
	selection, err := LoadSelection(cfg.SelectionPath)
	if err != nil {
		return nil, err
	}

	cap, err := gocv.VideoCaptureFile(cfg.VideoPath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open video '%s'", cfg.VideoPath)
	}
	defer cap.Close()

	info := VideoInfo{
		Source:      path.Base(cfg.VideoPath),
		FPS:         cap.Get(gocv.VideoCaptureFPS),
		TotalFrames: int(cap.Get(gocv.VideoCaptureFrameCount)),
		Width:       int(cap.Get(gocv.VideoCaptureFrameWidth)),
		Height:      int(cap.Get(gocv.VideoCaptureFrameHeight)),
	}
	log.Printf("Track: video '%s': %dx%d, %.1f FPS, %d frames", info.Source, info.Width, info.Height, info.FPS, info.TotalFrames)

	detector, err := NewYOLODetector(cfg.DetectorScript, cfg.VideoPath, cfg.ModelPath)
	if err != nil {
		return nil, err
	}
	defer detector.Close()

	players := make([]*track.PlayerState, 0, len(selection.Players))
	for _, p := range selection.Players {
		players = append(players, track.NewPlayerState(p.SelectionID, p.Name, selection.SelectionFrame, p.InitialBBox))
	}

	observer := cfg.Observer
	if observer == nil {
		observer = LogObserver
	}
	engine := track.NewEngine(cfg.Matching, track.NewAppearance(), players, observer)

	var debugWriter *gocv.VideoWriter
	if cfg.DebugVideoPath != "" {
		debugWriter, err = gocv.VideoWriterFile(cfg.DebugVideoPath, "XVID", info.FPS, info.Width, info.Height, true)
		if err != nil {
			return nil, errors.Wrapf(err, "can't open debug writer '%s'", cfg.DebugVideoPath)
		}
		defer debugWriter.Close()
	}

	frame := gocv.NewMat()
	defer frame.Close()

	frameIdx := 0
	for {
		if cfg.MaxFrames > 0 && frameIdx >= cfg.MaxFrames {
			break
		}
		if !cap.Read(&frame) || frame.Empty() {
			break
		}

		detections, err := detector.Next()
		if err != nil { //a bad frame costs missing data, never the run
			log.Printf("Track: detector failed on frame %d, got '%v'. Treating as zero detections.", frameIdx, err)
			detections = nil
		}

		engine.ProcessFrame(frame, frameIdx, detections)

		if debugWriter != nil {
			annotateFrame(&frame, frameIdx, players)
			debugWriter.Write(frame)
		}

		if frameIdx%500 == 0 {
			log.Printf("Track: processed frame %d/%d", frameIdx, info.TotalFrames)
		}
		frameIdx++
	}

	engine.Finalize(cfg.FixedOutputSize)

	data := &TrackingData{
		VideoInfo:       info,
		SelectedPlayers: make([]PlayerTrack, 0, len(players)),
	}
	for _, p := range players {
		data.SelectedPlayers = append(data.SelectedPlayers, playerTrackFrom(p))
	}

	if cfg.OutputPath != "" {
		if err := data.Save(cfg.OutputPath); err != nil {
			return nil, err
		}
		log.Printf("Track: wrote tracking data for %d players to '%s'", len(players), cfg.OutputPath)
	}

	return data, nil
}

func playerTrackFrom(p *track.PlayerState) PlayerTrack {
	frames := make(map[string]track.BBox, len(p.Frames))
	for idx, bbox := range p.Frames {
		frames[strconv.Itoa(idx)] = bbox
	}
	missing := make([]int, len(p.MissingFrames))
	copy(missing, p.MissingFrames)
	sort.Ints(missing)

	return PlayerTrack{
		Name:          p.Name,
		SelectionID:   p.SelectionID,
		Frames:        frames,
		MaxBBox:       p.MaxBBox,
		OutputSize:    p.OutputSize,
		FrameCount:    len(frames),
		MissingFrames: missing,
	}
}
