package main

import (
	"log"
	"os"

	"github.com/courtvision/player-clips/pkg/api"
	"github.com/courtvision/player-clips/pkg/video"
	"github.com/spf13/viper"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	video.SetConfigDefaults()
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error: Could not read config file, got '%v'", err)
	}

	//create missing directories from config file
	for _, dir := range viper.GetStringMapString("directory") {
		if _, err := os.Stat(dir); err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					log.Printf("Error Creating '%s' directory, got '%v'", dir, err)
				}
			}
		}
	}

	if viper.GetString("detector.script") == "" {
		log.Fatalf("Error: Missing critical configurations")
	}

	if len(os.Args) > 2 {
		switch os.Args[1] {
		case "track":
			runTrack(os.Args[2])
			return
		case "crop":
			runCrop(os.Args[2])
			return
		}
	}

	r := api.SetRouter()
	if err := r.Run(":" + viper.GetString("http.port")); err != nil {
		log.Fatalf("Error: Got '%v'", err)
	}
}

//runTrack runs selective tracking for one source video and persists the
//tracking data
func runTrack(videoName string) {
	cfg := video.RunConfigFromConfig(videoName)
	if _, err := video.RunSelectiveTracking(cfg); err != nil {
		log.Fatalf("Error: tracking '%s' failed, got '%v'", videoName, err)
	}
}

//runCrop extracts per-player clips from previously persisted tracking data
func runCrop(videoName string) {
	cfg := video.RunConfigFromConfig(videoName)
	data, err := video.LoadTrackingData(cfg.OutputPath)
	if err != nil {
		log.Fatalf("Error: Got '%v'", err)
	}

	clips, err := video.WriteClips(cfg.VideoPath, data, viper.GetString("directory.clips"), video.CropOptionsFromConfig())
	if err != nil {
		log.Fatalf("Error: cropping '%s' failed, got '%v'", videoName, err)
	}

	for _, c := range clips {
		log.Printf("Wrote clip '%s'", c)
	}
}
