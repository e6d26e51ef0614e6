package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
	"github.com/therealutkarshpriyadarshi/worddetect/pkg/timecode"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	// Create a mini Redis server for testing
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create cache: %v", err)
	}

	return cache, mr
}

func TestNewCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	if err := cache.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestCache_VideoOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	video := &models.Video{
		ID:         "test-video-1",
		Name:       "movie.mp4",
		VideoPath:  "/media/movie.mp4",
		SrtPath:    "/media/movie.srt",
		DurationMs: 5_400_000,
		Status:     models.VideoStatusUploaded,
	}

	if err := cache.SetVideo(ctx, video, 5*time.Minute); err != nil {
		t.Fatalf("SetVideo failed: %v", err)
	}

	retrieved, err := cache.GetVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Retrieved video should not be nil")
	}
	if retrieved.ID != video.ID {
		t.Errorf("Expected ID %s, got %s", video.ID, retrieved.ID)
	}
	if retrieved.Status != models.VideoStatusUploaded {
		t.Errorf("Expected status %s, got %s", models.VideoStatusUploaded, retrieved.Status)
	}

	if err := cache.DeleteVideo(ctx, video.ID); err != nil {
		t.Fatalf("DeleteVideo failed: %v", err)
	}

	missing, err := cache.GetVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("GetVideo after delete failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected cache miss after delete")
	}
}

func TestCache_WordMatchOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	start, _ := timecode.Parse("00:00:01,000")
	stop, _ := timecode.Parse("00:00:02,500")
	matches := []models.WordMatch{
		{VideoID: "vid-1", Word: "rat", Start: start, Stop: stop, CaptionIndex: 1},
	}

	if err := cache.SetWordMatches(ctx, "vid-1", matches, time.Minute); err != nil {
		t.Fatalf("SetWordMatches failed: %v", err)
	}

	retrieved, err := cache.GetWordMatches(ctx, "vid-1")
	if err != nil {
		t.Fatalf("GetWordMatches failed: %v", err)
	}
	if len(retrieved) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(retrieved))
	}
	if retrieved[0].Word != "rat" {
		t.Errorf("Expected word rat, got %s", retrieved[0].Word)
	}
	if retrieved[0].Start.Millis() != 1000 {
		t.Errorf("Expected start 1000ms, got %d", retrieved[0].Start.Millis())
	}
}

func TestCache_SegmentResultOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	results := []models.SegmentResult{
		{
			Request: models.SegmentRequest{
				VideoID: "vid-1", Word: "rat", StartMs: 500, StopMs: 3000, CaptionIndex: 1,
			},
			Status:     models.SegmentStatusSucceeded,
			OutputPath: "/tmp/vid-1-rat-00000500.mp3",
			Analysis:   &models.SpeechAnalysis{Confidence: 0.92, Label: "rat", Analyzer: "mock"},
		},
	}

	if err := cache.SetSegmentResults(ctx, "vid-1", results, time.Minute); err != nil {
		t.Fatalf("SetSegmentResults failed: %v", err)
	}

	retrieved, err := cache.GetSegmentResults(ctx, "vid-1")
	if err != nil {
		t.Fatalf("GetSegmentResults failed: %v", err)
	}
	if len(retrieved) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(retrieved))
	}
	if retrieved[0].Analysis == nil || retrieved[0].Analysis.Label != "rat" {
		t.Errorf("Analysis did not survive the round trip: %+v", retrieved[0].Analysis)
	}
}

func TestCache_InvalidateVideo(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	video := &models.Video{ID: "vid-1", Status: models.VideoStatusAnalysisComplete}
	if err := cache.SetVideo(ctx, video, time.Minute); err != nil {
		t.Fatalf("SetVideo failed: %v", err)
	}
	if err := cache.SetWordMatches(ctx, "vid-1", []models.WordMatch{{VideoID: "vid-1", Word: "rat"}}, time.Minute); err != nil {
		t.Fatalf("SetWordMatches failed: %v", err)
	}
	if err := cache.SetSegmentResults(ctx, "vid-1", []models.SegmentResult{{Status: models.SegmentStatusSucceeded}}, time.Minute); err != nil {
		t.Fatalf("SetSegmentResults failed: %v", err)
	}

	if err := cache.InvalidateVideo(ctx, "vid-1"); err != nil {
		t.Fatalf("InvalidateVideo failed: %v", err)
	}

	if v, _ := cache.GetVideo(ctx, "vid-1"); v != nil {
		t.Error("Expected video cache miss after invalidation")
	}
	if m, _ := cache.GetWordMatches(ctx, "vid-1"); m != nil {
		t.Error("Expected match cache miss after invalidation")
	}
	if s, _ := cache.GetSegmentResults(ctx, "vid-1"); s != nil {
		t.Error("Expected segment cache miss after invalidation")
	}
}

func TestCache_CacheMissReturnsNil(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	video, err := cache.GetVideo(ctx, "nope")
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if video != nil {
		t.Error("Expected nil on cache miss")
	}
}

func TestCache_Stats(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cache.IncrementStat(ctx, "detections"); err != nil {
			t.Fatalf("IncrementStat failed: %v", err)
		}
	}

	count, err := cache.GetStat(ctx, "detections")
	if err != nil {
		t.Fatalf("GetStat failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3, got %d", count)
	}
}
