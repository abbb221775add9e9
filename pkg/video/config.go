package video

import (
	"path"
	"strings"

	"github.com/courtvision/player-clips/pkg/track"
	"github.com/spf13/viper"
)

//SetConfigDefaults registers the default values for every tracking and
//cropping key so the config file only needs to name what it overrides
func SetConfigDefaults() {
	viper.SetDefault("detector.model", "yolo11n.pt")
	viper.SetDefault("tracking.iou_threshold", track.DefaultIOUThreshold)
	viper.SetDefault("tracking.base_speed", track.DefaultBaseSpeed)
	viper.SetDefault("tracking.max_distance", track.DefaultMaxDistanceCap)
	viper.SetDefault("tracking.similarity_threshold", track.DefaultSimilarityThreshold)
	viper.SetDefault("tracking.distance_weight", track.DefaultDistanceWeight)
	viper.SetDefault("tracking.histogram_weight", track.DefaultHistogramWeight)
	viper.SetDefault("tracking.histogram_alpha", track.DefaultHistogramAlpha)
	viper.SetDefault("tracking.assignment", "greedy")
	viper.SetDefault("tracking.max_frames", 0)
	viper.SetDefault("crop.include_black_frames", true)
	viper.SetDefault("crop.min_frames", 0)
}

//MatchingFromConfig builds the engine parameters from the loaded config
func MatchingFromConfig() track.Config {
	cfg := track.Config{
		IOUThreshold:        viper.GetFloat64("tracking.iou_threshold"),
		BaseSpeed:           viper.GetFloat64("tracking.base_speed"),
		MaxDistanceCap:      viper.GetFloat64("tracking.max_distance"),
		SimilarityThreshold: viper.GetFloat64("tracking.similarity_threshold"),
		DistanceWeight:      viper.GetFloat64("tracking.distance_weight"),
		HistogramWeight:     viper.GetFloat64("tracking.histogram_weight"),
		HistogramAlpha:      viper.GetFloat64("tracking.histogram_alpha"),
	}
	cfg.GlobalAssignment = viper.GetString("tracking.assignment") == "hungarian"
	return cfg
}

//RunConfigFromConfig builds a complete run configuration for one source
//video. The selection record and tracking output live next to the video
//name in their configured directories.
func RunConfigFromConfig(videoName string) RunConfig {
	base := strings.TrimSuffix(videoName, path.Ext(videoName))

	cfg := RunConfig{
		VideoPath:      path.Join(viper.GetString("directory.source"), videoName),
		SelectionPath:  path.Join(viper.GetString("directory.selections"), base+".json"),
		OutputPath:     path.Join(viper.GetString("directory.tracking"), base+".json"),
		DetectorScript: viper.GetString("detector.script"),
		ModelPath:      viper.GetString("detector.model"),
		MaxFrames:      viper.GetInt("tracking.max_frames"),
		Matching:       MatchingFromConfig(),
	}

	if viper.IsSet("crop.output_width") && viper.IsSet("crop.output_height") {
		cfg.FixedOutputSize = &track.Size{
			Width:  viper.GetInt("crop.output_width"),
			Height: viper.GetInt("crop.output_height"),
		}
	}
	if viper.GetBool("tracking.debug_video") {
		cfg.DebugVideoPath = path.Join(viper.GetString("directory.tracking"), base+"_debug.avi")
	}

	return cfg
}

//CropOptionsFromConfig builds clip extraction options from the loaded config
func CropOptionsFromConfig() CropOptions {
	return CropOptions{
		IncludeBlackFrames: viper.GetBool("crop.include_black_frames"),
		MinFrames:          viper.GetInt("crop.min_frames"),
	}
}
