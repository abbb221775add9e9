package video

import (
	"bufio"
	"encoding/json"
	"log"
	"os/exec"
	"strings"

	"github.com/courtvision/player-clips/pkg/track"
	"github.com/pkg/errors"
)

//Detector supplies per-frame detections for a video, one call per decoded
//frame. Track ids are only stable while the underlying object stays
//continuously visible to the detector.
type Detector interface {
	//Next returns the detections for the next frame. A detector failure
	//for a single frame degrades to an empty result; io ends with an
	//empty result once the stream is exhausted.
	Next() ([]track.Detection, error)
	Close() error
}

//wireDetection is the JSON shape the detector process prints, one object
//per line. TrackID is null when the tracker could not associate the box.
type wireDetection struct {
	TrackID    *int    `json:"TrackID"`
	Confidence float64 `json:"Confidence"`
	Xmin       int     `json:"Xmin"`
	Ymin       int     `json:"Ymin"`
	Xmax       int     `json:"Xmax"`
	Ymax       int     `json:"Ymax"`
}

//YOLODetector runs an external YOLO+ByteTrack process once for the whole
//video and scans its standard output frame by frame. Expected protocol:
//a "Frame #:" line opens each frame, followed by one JSON detection per
//line, and a final "EOF" line after the last frame.
type YOLODetector struct {
	cmd       *exec.Cmd
	scanner   *bufio.Scanner
	started   bool
	exhausted bool
}

//NewYOLODetector launches the detector process for the given video.
//modelPath is passed through opaquely to the process.
func NewYOLODetector(scriptPath, videoPath, modelPath string) (*YOLODetector, error) {
	cmd := exec.Command("python3", scriptPath, "--video", videoPath, "--model", modelPath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "can't open detector stdout")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "can't start detector process")
	}

	return &YOLODetector{
		cmd:     cmd,
		scanner: bufio.NewScanner(stdout),
	}, nil
}

//Next scans one frame block from the detector's output. Malformed lines
//are logged and skipped, and boxes are validated here once so the matching
//engine never re-checks them.
func (d *YOLODetector) Next() ([]track.Detection, error) {
	if d.exhausted {
		return nil, nil
	}

	detections := make([]track.Detection, 0)

	if !d.started { //consume the first frame header
		for d.scanner.Scan() {
			line := d.scanner.Text()
			if strings.Contains(line, "Frame #:") {
				d.started = true
				break
			}
			if line == "EOF" {
				d.exhausted = true
				return nil, nil
			}
		}
		if !d.started {
			d.exhausted = true
			return nil, errors.New("detector produced no frames")
		}
	}

	for d.scanner.Scan() {
		line := d.scanner.Text()

		if strings.Contains(line, "Frame #:") { //next frame starts, this one is complete
			return detections, nil
		}

		if line == "EOF" {
			d.exhausted = true
			return detections, nil
		}

		if !strings.HasPrefix(strings.TrimSpace(line), "{") { //detector log print, skip it
			continue
		}

		var wire wireDetection
		if err := json.Unmarshal(d.scanner.Bytes(), &wire); err != nil {
			log.Printf("YOLODetector: skipping malformed detection line, got '%v'", err)
			continue
		}

		det := track.Detection{
			BBox:       track.BBox{X1: wire.Xmin, Y1: wire.Ymin, X2: wire.Xmax, Y2: wire.Ymax},
			Confidence: wire.Confidence,
		}
		if !det.BBox.Valid() {
			log.Printf("YOLODetector: skipping degenerate bbox %+v", det.BBox)
			continue
		}
		if wire.TrackID != nil {
			det.TrackID = *wire.TrackID
			det.HasTrackID = true
		}
		detections = append(detections, det)
	}

	d.exhausted = true
	if err := d.scanner.Err(); err != nil {
		return detections, errors.Wrap(err, "detector output read failed")
	}
	return detections, nil
}

//Close reaps the detector process. When the run stops before the stream
//is exhausted (frame cap, early break) the process is still writing
//detections nobody reads; once the stdout pipe fills it would block
//forever, so it is killed instead of waited out.
func (d *YOLODetector) Close() error {
	if d.cmd == nil {
		return nil
	}
	if d.exhausted {
		if err := d.cmd.Wait(); err != nil {
			return errors.Wrap(err, "detector process exited with error")
		}
		return nil
	}
	if d.cmd.Process != nil {
		if err := d.cmd.Process.Kill(); err != nil {
			return errors.Wrap(err, "can't kill detector process")
		}
	}
	d.cmd.Wait() //exit status of a killed process carries no information
	return nil
}
