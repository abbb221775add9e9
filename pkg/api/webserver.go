package api

import (
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"sync"

	"github.com/courtvision/player-clips/pkg/utils"
	"github.com/courtvision/player-clips/pkg/video"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

//Job states
const (
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

//Job is one background tracking + cropping run
type Job struct {
	ID     string   `json:"id"`
	Video  string   `json:"video"`
	Status string   `json:"status"`
	Error  string   `json:"error,omitempty"`
	Clips  []string `json:"clips,omitempty"`
}

type jobRegistry struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func (r *jobRegistry) put(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

func (r *jobRegistry) get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (r *jobRegistry) update(id string, fn func(*Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		fn(job)
	}
}

//SetRouter builds the HTTP surface: upload source videos, launch tracking
//jobs, poll them, and list/stream the finished clips
func SetRouter() *gin.Engine {
	r := gin.Default()

	registry := &jobRegistry{jobs: make(map[string]*Job)}

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/SourceVideosNames", func(ctx *gin.Context) {
		if names, err := utils.ListDir(viper.GetString("directory.source")); err != nil {
			ctx.Status(http.StatusInternalServerError)
		} else {
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/ClipsNames", func(ctx *gin.Context) {
		if names, err := utils.ListDir(viper.GetString("directory.clips")); err != nil {
			ctx.Status(http.StatusInternalServerError)
		} else {
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/Play", func(ctx *gin.Context) {
		clipName := ctx.Request.URL.Query().Get("name")
		if clipName == "" || clipName != path.Base(clipName) {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		clipPath := path.Join(viper.GetString("directory.clips"), clipName)
		if _, err := os.Stat(clipPath); err != nil {
			if os.IsNotExist(err) {
				ctx.Status(http.StatusNotFound)
			} else {
				ctx.Status(http.StatusInternalServerError)
			}
			return
		}

		ctx.Header("Content-Type", "video/mp4")
		http.ServeFile(ctx.Writer, ctx.Request, clipPath)
	})

	apiRoutes.POST("/Upload", func(ctx *gin.Context) {
		file, fHeader, err := ctx.Request.FormFile("video")
		if err != nil {
			ctx.Status(http.StatusInternalServerError)
			return
		}
		defer file.Close()

		if existNames, err := utils.ListDir(viper.GetString("directory.source")); err != nil {
			ctx.Status(http.StatusInternalServerError)
			return
		} else if utils.InSlice(fHeader.Filename, existNames) {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		log.Printf("api/Upload: Received new file: name - '%s', size - %v Bytes", fHeader.Filename, fHeader.Size)

		srcFilePath := path.Join(viper.GetString("directory.source"), fHeader.Filename)
		dst, err := os.OpenFile(srcFilePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			ctx.Status(http.StatusInternalServerError)
			return
		}
		defer dst.Close()

		if _, err := io.Copy(dst, file); err != nil {
			log.Printf("api/Upload: Could not write '%s' file, got '%v'", srcFilePath, err)
			ctx.Status(http.StatusInternalServerError)
			return
		}

		ctx.Status(http.StatusOK)
	})

	apiRoutes.POST("/Track", func(ctx *gin.Context) {
		videoName := ctx.Request.URL.Query().Get("name")
		if videoName == "" || videoName != path.Base(videoName) {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		job := &Job{
			ID:     uuid.New().String(),
			Video:  videoName,
			Status: JobRunning,
		}
		registry.put(job)

		go runJob(registry, job.ID, videoName)

		ctx.JSON(http.StatusAccepted, gin.H{"id": job.ID})
	})

	apiRoutes.GET("/TrackStatus", func(ctx *gin.Context) {
		id := ctx.Request.URL.Query().Get("id")
		job, ok := registry.get(id)
		if !ok {
			ctx.Status(http.StatusNotFound)
			return
		}
		ctx.JSON(http.StatusOK, job)
	})

	return r
}

//runJob executes the full pipeline for one video: selective tracking,
//then clip extraction
func runJob(registry *jobRegistry, jobID, videoName string) {
	cfg := video.RunConfigFromConfig(videoName)

	data, err := video.RunSelectiveTracking(cfg)
	if err != nil {
		log.Printf("api/Track: tracking '%s' failed, got '%v'", videoName, err)
		registry.update(jobID, func(j *Job) {
			j.Status = JobFailed
			j.Error = err.Error()
		})
		return
	}

	clips, err := video.WriteClips(cfg.VideoPath, data, viper.GetString("directory.clips"), video.CropOptionsFromConfig())
	if err != nil {
		log.Printf("api/Track: cropping '%s' failed, got '%v'", videoName, err)
		registry.update(jobID, func(j *Job) {
			j.Status = JobFailed
			j.Error = err.Error()
		})
		return
	}

	registry.update(jobID, func(j *Job) {
		j.Status = JobDone
		j.Clips = clips
	})
}
