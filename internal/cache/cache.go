package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
)

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Video Cache Operations

// SetVideo caches video metadata
func (c *Cache) SetVideo(ctx context.Context, video *models.Video, ttl time.Duration) error {
	data, err := json.Marshal(video)
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}

	key := fmt.Sprintf("video:%s", video.ID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetVideo retrieves video metadata from cache
func (c *Cache) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	key := fmt.Sprintf("video:%s", videoID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get video from cache: %w", err)
	}

	var video models.Video
	if err := json.Unmarshal(data, &video); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video: %w", err)
	}

	return &video, nil
}

// DeleteVideo removes video from cache. Called on every state transition so
// readers never see a stale pipeline status.
func (c *Cache) DeleteVideo(ctx context.Context, videoID string) error {
	key := fmt.Sprintf("video:%s", videoID)
	return c.client.Del(ctx, key).Err()
}

// Detection Cache Operations

// SetWordMatches caches the detected occurrences for a video
func (c *Cache) SetWordMatches(ctx context.Context, videoID string, matches []models.WordMatch, ttl time.Duration) error {
	data, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("failed to marshal word matches: %w", err)
	}

	key := fmt.Sprintf("matches:%s", videoID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetWordMatches retrieves cached occurrences for a video. A cache miss
// returns (nil, nil).
func (c *Cache) GetWordMatches(ctx context.Context, videoID string) ([]models.WordMatch, error) {
	key := fmt.Sprintf("matches:%s", videoID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get word matches from cache: %w", err)
	}

	var matches []models.WordMatch
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal word matches: %w", err)
	}

	return matches, nil
}

// SetSegmentResults caches the segment outcomes for a video
func (c *Cache) SetSegmentResults(ctx context.Context, videoID string, results []models.SegmentResult, ttl time.Duration) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal segment results: %w", err)
	}

	key := fmt.Sprintf("segments:%s", videoID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetSegmentResults retrieves cached segment outcomes for a video
func (c *Cache) GetSegmentResults(ctx context.Context, videoID string) ([]models.SegmentResult, error) {
	key := fmt.Sprintf("segments:%s", videoID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get segment results from cache: %w", err)
	}

	var results []models.SegmentResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal segment results: %w", err)
	}

	return results, nil
}

// InvalidateVideo drops every cached artifact of a video before a
// reprocessing run.
func (c *Cache) InvalidateVideo(ctx context.Context, videoID string) error {
	keys := []string{
		fmt.Sprintf("video:%s", videoID),
		fmt.Sprintf("matches:%s", videoID),
		fmt.Sprintf("segments:%s", videoID),
	}
	return c.client.Del(ctx, keys...).Err()
}

// Stats Cache Operations

// IncrementStat increments a statistic counter
func (c *Cache) IncrementStat(ctx context.Context, stat string) error {
	key := fmt.Sprintf("stats:%s", stat)
	return c.client.Incr(ctx, key).Err()
}

// GetStat retrieves a statistic value
func (c *Cache) GetStat(ctx context.Context, stat string) (int64, error) {
	key := fmt.Sprintf("stats:%s", stat)
	return c.client.Get(ctx, key).Int64()
}

// Health check
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
