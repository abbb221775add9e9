package video

import (
	"image"
	"log"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/courtvision/player-clips/pkg/track"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//CropAndPad produces a fixed-size canvas centered on the bbox's center.
//Regions of the canvas falling outside the source frame stay black. The
//caller owns the returned Mat.
func CropAndPad(frame gocv.Mat, bbox track.BBox, size track.Size) gocv.Mat {
	canvas := BlackFrame(size)

	cx := (bbox.X1 + bbox.X2) / 2
	cy := (bbox.Y1 + bbox.Y2) / 2

	cropX1 := cx - size.Width/2
	cropY1 := cy - size.Height/2
	cropX2 := cropX1 + size.Width
	cropY2 := cropY1 + size.Height

	srcX1 := maxOf(0, cropX1)
	srcY1 := maxOf(0, cropY1)
	srcX2 := minOf(frame.Cols(), cropX2)
	srcY2 := minOf(frame.Rows(), cropY2)
	if srcX2 <= srcX1 || srcY2 <= srcY1 {
		return canvas
	}

	dstX1 := srcX1 - cropX1
	dstY1 := srcY1 - cropY1
	dstX2 := dstX1 + (srcX2 - srcX1)
	dstY2 := dstY1 + (srcY2 - srcY1)

	src := frame.Region(image.Rect(srcX1, srcY1, srcX2, srcY2))
	defer src.Close()
	dst := canvas.Region(image.Rect(dstX1, dstY1, dstX2, dstY2))
	defer dst.Close()
	src.CopyTo(&dst)

	return canvas
}

//BlackFrame returns a black canvas of the given size. The caller owns the
//returned Mat.
func BlackFrame(size track.Size) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), size.Height, size.Width, gocv.MatTypeCV8UC3)
}

var diacriticsRemover = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

//SanitizeName converts a player name to a safe filename: diacritics
//stripped, lowercased, runs of non-alphanumerics collapsed to single
//underscores. Names with no usable characters become "player_unknown".
func SanitizeName(name string) string {
	ascii, _, err := transform.String(diacriticsRemover, name)
	if err != nil {
		ascii = name
	}

	var sb strings.Builder
	lastUnderscore := true //swallow leading separators
	for _, r := range strings.ToLower(ascii) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(sb.String(), "_")
	if out == "" {
		return "player_unknown"
	}
	return out
}

//clipFilenames sanitizes every player name and suffixes duplicates so two
//players named alike never share an output file
func clipFilenames(players []PlayerTrack) []string {
	sanitized := make([]string, len(players))
	total := make(map[string]int)
	for i, p := range players {
		sanitized[i] = SanitizeName(p.Name)
		total[sanitized[i]]++
	}

	seen := make(map[string]int)
	names := make([]string, len(players))
	for i, name := range sanitized {
		if total[name] > 1 {
			seen[name]++
			names[i] = name + "_" + strconv.Itoa(seen[name])
		} else {
			names[i] = name
		}
	}
	return names
}

//CropOptions configures clip extraction
type CropOptions struct {
	//IncludeBlackFrames keeps each clip in sync with the source timeline
	//by writing a black frame whenever the player was not located
	IncludeBlackFrames bool
	//MinFrames skips players located in fewer frames than this
	MinFrames int
}

//WriteClips extracts one fixed-size clip per tracked player from the
//source video, then converts each clip to H.264. Returns the generated
//file paths.
func WriteClips(videoPath string, data *TrackingData, outputDir string, opts CropOptions) ([]string, error) {
	players := data.SelectedPlayers
	if opts.MinFrames > 0 {
		kept := make([]PlayerTrack, 0, len(players))
		for _, p := range players {
			if p.FrameCount >= opts.MinFrames {
				kept = append(kept, p)
			}
		}
		log.Printf("Crop: keeping %d/%d players with >= %d located frames", len(kept), len(players), opts.MinFrames)
		players = kept
	}
	if len(players) == 0 {
		return nil, errors.New("no players pass the min frames filter")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "can't create output dir '%s'", outputDir)
	}

	cap, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open video '%s'", videoPath)
	}
	defer cap.Close()

	names := clipFilenames(players)
	outputFiles := make([]string, 0, len(players))
	writers := make([]*gocv.VideoWriter, len(players))
	for i, p := range players {
		outputFile := path.Join(outputDir, names[i]+".mp4")
		writer, err := gocv.VideoWriterFile(outputFile, "mp4v", data.VideoInfo.FPS, p.OutputSize.Width, p.OutputSize.Height, true)
		if err != nil {
			closeWriters(writers)
			return nil, errors.Wrapf(err, "can't open clip writer '%s'", outputFile)
		}
		writers[i] = writer
		outputFiles = append(outputFiles, outputFile)
	}
	defer closeWriters(writers)

	frame := gocv.NewMat()
	defer frame.Close()

	frameIdx := 0
	for {
		if !cap.Read(&frame) || frame.Empty() {
			break
		}
		key := strconv.Itoa(frameIdx)

		for i, p := range players {
			if bbox, ok := p.Frames[key]; ok {
				cropped := CropAndPad(frame, bbox, p.OutputSize)
				writers[i].Write(cropped)
				cropped.Close()
			} else if opts.IncludeBlackFrames {
				black := BlackFrame(p.OutputSize)
				writers[i].Write(black)
				black.Close()
			}
		}

		if frameIdx%500 == 0 {
			log.Printf("Crop: processed frame %d/%d", frameIdx, data.VideoInfo.TotalFrames)
		}
		frameIdx++
	}

	closeWriters(writers)

	for _, f := range outputFiles {
		if err := convertToH264(f); err != nil {
			log.Printf("Crop: H.264 conversion failed for '%s', got '%v'. Keeping mp4v.", f, err)
		}
	}

	log.Printf("Crop: wrote %d clips to '%s'", len(outputFiles), outputDir)
	return outputFiles, nil
}

//convertToH264 re-encodes a clip in place with ffmpeg for web playback
func convertToH264(clipPath string) error {
	tmpPath := clipPath + ".h264.mp4"
	cmd := exec.Command("ffmpeg", "-y", "-i", clipPath,
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-movflags", "+faststart",
		tmpPath)
	if err := cmd.Run(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "ffmpeg failed")
	}
	return os.Rename(tmpPath, clipPath)
}

func closeWriters(writers []*gocv.VideoWriter) {
	for i, w := range writers {
		if w != nil {
			w.Close()
			writers[i] = nil
		}
	}
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minOf(a, b int) int {
	if a < b {
		return a
	}
	return b
}
