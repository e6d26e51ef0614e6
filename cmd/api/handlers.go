package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/database"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/metrics"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/upload"
	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
)

const cacheTTL = 5 * time.Minute

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.repo.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	resp := gin.H{"status": "healthy"}
	if depth, err := api.queue.GetQueueDepth(); err == nil {
		resp["queue_depth"] = depth
	}

	c.JSON(http.StatusOK, resp)
}

// Upload video endpoint. Expects a multipart form with a "video" file and
// a "subtitle" file; the pair is registered as one processable unit.
func (api *API) uploadVideo(c *gin.Context) {
	videoFile, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No video file provided"})
		return
	}

	srtFile, err := c.FormFile("subtitle")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No subtitle file provided"})
		return
	}

	videoPath, err := api.saveUpload(videoFile, api.uploads.SaveVideo)
	if err != nil {
		api.uploadError(c, err)
		return
	}

	srtPath, err := api.saveUpload(srtFile, api.uploads.SaveSubtitle)
	if err != nil {
		api.uploadError(c, err)
		return
	}

	// Probe is best effort here; the worker re-probes when the duration is
	// still unknown at extraction time.
	var durationMs int64
	if probed, err := api.ffmpeg.ProbeDuration(c.Request.Context(), videoPath); err == nil {
		durationMs = probed
	} else {
		api.log.Warnf("Failed to probe uploaded video %s: %v", videoFile.Filename, err)
	}

	video := &models.Video{
		ID:         uuid.New().String(),
		Name:       videoFile.Filename,
		VideoPath:  videoPath,
		SrtPath:    srtPath,
		DurationMs: durationMs,
		Status:     models.VideoStatusUploaded,
	}

	if err := api.repo.CreateVideo(c.Request.Context(), video); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to create video: %v", err)})
		return
	}

	metrics.VideoUploadsTotal.Inc()
	metrics.VideoUploadSizeBytes.Observe(float64(videoFile.Size))

	c.JSON(http.StatusCreated, video)
}

type saveFunc func(filename string, size int64, data io.Reader) (string, error)

func (api *API) saveUpload(file *multipart.FileHeader, save saveFunc) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	return save(file.Filename, file.Size, src)
}

func (api *API) uploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upload.ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, upload.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// List videos endpoint
func (api *API) listVideos(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	videos, err := api.repo.ListVideos(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"limit":  limit,
		"offset": offset,
	})
}

// Get video endpoint
func (api *API) getVideo(c *gin.Context) {
	videoID := c.Param("id")

	if cached, err := api.cache.GetVideo(c.Request.Context(), videoID); err == nil && cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	video, err := api.repo.GetVideo(c.Request.Context(), videoID)
	if err != nil {
		api.notFoundOrError(c, err)
		return
	}

	if err := api.cache.SetVideo(c.Request.Context(), video, cacheTTL); err != nil {
		api.log.Warnf("Failed to cache video %s: %v", videoID, err)
	}

	c.JSON(http.StatusOK, video)
}

// Get video status endpoint: the pipeline state plus failure detail
func (api *API) getVideoStatus(c *gin.Context) {
	videoID := c.Param("id")

	video, err := api.repo.GetVideo(c.Request.Context(), videoID)
	if err != nil {
		api.notFoundOrError(c, err)
		return
	}

	resp := gin.H{
		"video_id": video.ID,
		"status":   video.Status,
	}
	if video.Status == models.VideoStatusFailed {
		resp["failed_stage"] = video.FailedStage
		resp["failure_reason"] = video.FailureReason
	}

	c.JSON(http.StatusOK, resp)
}

// Delete video endpoint: removes the record, detection artifacts, stored
// segments and the uploaded local files.
func (api *API) deleteVideo(c *gin.Context) {
	videoID := c.Param("id")

	video, err := api.repo.GetVideo(c.Request.Context(), videoID)
	if err != nil {
		api.notFoundOrError(c, err)
		return
	}

	// Cleanup around the database delete is best effort.
	if err := api.storage.DeleteSegments(c.Request.Context(), videoID); err != nil {
		api.log.Warnf("Failed to delete stored segments for video %s: %v", videoID, err)
	}
	for _, path := range []string{video.VideoPath, video.SrtPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			api.log.Warnf("Failed to remove local file %s: %v", path, err)
		}
	}
	if err := api.cache.InvalidateVideo(c.Request.Context(), videoID); err != nil {
		api.log.Warnf("Failed to invalidate cache for video %s: %v", videoID, err)
	}

	if err := api.repo.DeleteVideo(c.Request.Context(), videoID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to delete video: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Video deleted", "video_id": videoID})
}

// Process video endpoint: enqueues a detection run
func (api *API) processVideo(c *gin.Context) {
	videoID := c.Param("id")

	video, err := api.repo.GetVideo(c.Request.Context(), videoID)
	if err != nil {
		api.notFoundOrError(c, err)
		return
	}

	// Stale artifacts of a previous run must not survive a reprocess.
	if err := api.cache.InvalidateVideo(c.Request.Context(), videoID); err != nil {
		api.log.Warnf("Failed to invalidate cache for video %s: %v", videoID, err)
	}

	job := &models.DetectionJob{
		ID:         uuid.New().String(),
		VideoID:    video.ID,
		EnqueuedAt: time.Now().UTC(),
	}

	if err := api.queue.PublishJob(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to queue job: %v", err)})
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// Get word matches endpoint
func (api *API) getWordMatches(c *gin.Context) {
	videoID := c.Param("id")

	if cached, err := api.cache.GetWordMatches(c.Request.Context(), videoID); err == nil && cached != nil {
		c.JSON(http.StatusOK, gin.H{"video_id": videoID, "matches": cached})
		return
	}

	matches, err := api.repo.GetWordMatches(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(matches) > 0 {
		if err := api.cache.SetWordMatches(c.Request.Context(), videoID, matches, cacheTTL); err != nil {
			api.log.Warnf("Failed to cache matches for video %s: %v", videoID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"video_id": videoID, "matches": matches})
}

// Get segment results endpoint
func (api *API) getSegmentResults(c *gin.Context) {
	videoID := c.Param("id")

	if cached, err := api.cache.GetSegmentResults(c.Request.Context(), videoID); err == nil && cached != nil {
		c.JSON(http.StatusOK, gin.H{"video_id": videoID, "segments": cached})
		return
	}

	results, err := api.repo.GetSegmentResults(c.Request.Context(), videoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(results) > 0 {
		if err := api.cache.SetSegmentResults(c.Request.Context(), videoID, results, cacheTTL); err != nil {
			api.log.Warnf("Failed to cache segments for video %s: %v", videoID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"video_id": videoID, "segments": results})
}

// Get segment URL endpoint: presigned download link for one stored segment
func (api *API) getSegmentURL(c *gin.Context) {
	videoID := c.Param("id")
	key := c.Query("key")

	if key == "" || !strings.HasPrefix(key, "segments/"+videoID+"/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key must reference a segment of this video"})
		return
	}

	url, err := api.storage.GetURL(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// List words endpoint
func (api *API) listWords(c *gin.Context) {
	words, err := api.repo.ListWords(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"words": words})
}

// Add word endpoint
func (api *API) addWord(c *gin.Context) {
	var req struct {
		Word string `json:"word" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	word := &models.Word{Word: strings.ToLower(strings.TrimSpace(req.Word))}
	if word.Word == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "word must not be blank"})
		return
	}

	if err := api.repo.CreateWord(c.Request.Context(), word); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, word)
}

// Remove word endpoint
func (api *API) removeWord(c *gin.Context) {
	word := strings.ToLower(c.Param("word"))

	if err := api.repo.DeleteWord(c.Request.Context(), word); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Word removed", "word": word})
}

func (api *API) notFoundOrError(c *gin.Context, err error) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
