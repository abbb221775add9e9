package video

import (
	"encoding/json"
	"os"

	"github.com/courtvision/player-clips/pkg/track"
	"github.com/pkg/errors"
)

//SelectedPlayer is one user-picked player from the selection record
type SelectedPlayer struct {
	SelectionID int        `json:"selection_id"`
	Name        string     `json:"name"`
	InitialBBox track.BBox `json:"initial_bbox"`
}

//Selection is the persisted player selection record
type Selection struct {
	SelectionFrame int              `json:"selection_frame"`
	Players        []SelectedPlayer `json:"players"`
}

//LoadSelection reads and validates a selection record. An empty player
//list or a malformed file is a fatal configuration error raised before any
//frame is processed.
func LoadSelection(path string) (*Selection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read selection file '%s'", path)
	}

	var sel Selection
	if err := json.Unmarshal(raw, &sel); err != nil {
		return nil, errors.Wrapf(err, "can't parse selection file '%s'", path)
	}

	if len(sel.Players) == 0 {
		return nil, errors.Errorf("selection file '%s' contains no players", path)
	}
	for _, p := range sel.Players {
		if p.Name == "" {
			return nil, errors.Errorf("selection %d has an empty name", p.SelectionID)
		}
		if !p.InitialBBox.Valid() {
			return nil, errors.Errorf("selection %d ('%s') has an invalid initial bbox", p.SelectionID, p.Name)
		}
	}

	return &sel, nil
}

//VideoInfo describes the source video the tracking data was produced from
type VideoInfo struct {
	Source      string  `json:"source"`
	FPS         float64 `json:"fps"`
	TotalFrames int     `json:"total_frames"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

//PlayerTrack is the persisted per-player tracking result. Frames is keyed
//by the stringified frame index and only contains frames where the player
//was located.
type PlayerTrack struct {
	Name          string                `json:"name"`
	SelectionID   int                   `json:"selection_id"`
	Frames        map[string]track.BBox `json:"frames"`
	MaxBBox       track.Size            `json:"max_bbox"`
	OutputSize    track.Size            `json:"output_size"`
	FrameCount    int                   `json:"frame_count"`
	MissingFrames []int                 `json:"missing_frames"`
}

//TrackingData is the persisted tracking output record
type TrackingData struct {
	VideoInfo       VideoInfo     `json:"video_info"`
	SelectedPlayers []PlayerTrack `json:"selected_players"`
}

//LoadTrackingData reads a tracking output record. Malformed JSON is
//surfaced directly, not repaired.
func LoadTrackingData(path string) (*TrackingData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read tracking data '%s'", path)
	}

	var data TrackingData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrapf(err, "can't parse tracking data '%s'", path)
	}
	if len(data.SelectedPlayers) == 0 {
		return nil, errors.Errorf("tracking data '%s' is empty, no players to extract", path)
	}

	return &data, nil
}

//Save writes the tracking data as indented JSON
func (d *TrackingData) Save(path string) error {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return errors.Wrap(err, "can't marshal tracking data")
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return errors.Wrapf(err, "can't write tracking data '%s'", path)
	}
	return nil
}
