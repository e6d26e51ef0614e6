package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
	"github.com/therealutkarshpriyadarshi/worddetect/pkg/timecode"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Health checks if the backing database is reachable
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

// Videos

// CreateVideo creates a new video record
func (r *Repository) CreateVideo(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = uuid.New().String()
	}

	query := `
		INSERT INTO videos (id, name, video_path, srt_path, duration_ms, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.ID, video.Name, video.VideoPath, video.SrtPath, video.DurationMs, video.Status,
	).Scan(&video.CreatedAt, &video.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetVideo retrieves a video by ID
func (r *Repository) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video

	query := `
		SELECT id, name, video_path, srt_path, duration_ms, status,
		       COALESCE(failed_stage, ''), COALESCE(failure_reason, ''), created_at, updated_at
		FROM videos
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&video.ID, &video.Name, &video.VideoPath, &video.SrtPath, &video.DurationMs,
		&video.Status, &video.FailedStage, &video.FailureReason, &video.CreatedAt, &video.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	return &video, nil
}

// ListVideos retrieves all videos with pagination
func (r *Repository) ListVideos(ctx context.Context, limit, offset int) ([]*models.Video, error) {
	query := `
		SELECT id, name, video_path, srt_path, duration_ms, status,
		       COALESCE(failed_stage, ''), COALESCE(failure_reason, ''), created_at, updated_at
		FROM videos
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		var video models.Video
		err := rows.Scan(
			&video.ID, &video.Name, &video.VideoPath, &video.SrtPath, &video.DurationMs,
			&video.Status, &video.FailedStage, &video.FailureReason, &video.CreatedAt, &video.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, &video)
	}

	return videos, nil
}

// UpdateVideoStatus advances a video's processing state and clears any
// previous failure record.
func (r *Repository) UpdateVideoStatus(ctx context.Context, videoID, status string) error {
	query := `
		UPDATE videos
		SET status = $2, failed_stage = NULL, failure_reason = NULL, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, videoID, status)
	if err != nil {
		return fmt.Errorf("failed to update video status: %w", err)
	}

	return nil
}

// MarkVideoFailed records a stage failure for a video
func (r *Repository) MarkVideoFailed(ctx context.Context, videoID, stage, reason string) error {
	query := `
		UPDATE videos
		SET status = $2, failed_stage = $3, failure_reason = $4, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, videoID, models.VideoStatusFailed, stage, reason)
	if err != nil {
		return fmt.Errorf("failed to mark video failed: %w", err)
	}

	return nil
}

// DeleteVideo removes a video and its detection artifacts
func (r *Repository) DeleteVideo(ctx context.Context, videoID string) error {
	for _, query := range []string{
		`DELETE FROM segments WHERE video_id = $1`,
		`DELETE FROM word_matches WHERE video_id = $1`,
		`DELETE FROM videos WHERE id = $1`,
	} {
		if _, err := r.db.Pool.Exec(ctx, query, videoID); err != nil {
			return fmt.Errorf("failed to delete video: %w", err)
		}
	}

	return nil
}

// Words

// CreateWord adds a word to the target list
func (r *Repository) CreateWord(ctx context.Context, word *models.Word) error {
	if word.ID == "" {
		word.ID = uuid.New().String()
	}

	query := `
		INSERT INTO words (id, word)
		VALUES ($1, $2)
		ON CONFLICT (word) DO NOTHING
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, word.ID, word.Word).Scan(&word.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already present; idempotent add.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create word: %w", err)
	}

	return nil
}

// DeleteWord removes a word from the target list
func (r *Repository) DeleteWord(ctx context.Context, word string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM words WHERE word = $1`, word)
	if err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	return nil
}

// ListWords retrieves the full target word list
func (r *Repository) ListWords(ctx context.Context) ([]*models.Word, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, word, created_at FROM words ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	defer rows.Close()

	var words []*models.Word
	for rows.Next() {
		var word models.Word
		if err := rows.Scan(&word.ID, &word.Word, &word.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		words = append(words, &word)
	}

	return words, nil
}

// Word matches

// SaveWordMatches stores detected occurrences for a video. The unique key
// (video_id, word, start_ms, stop_ms, caption_index) makes reprocessing
// idempotent: duplicates are silently skipped.
func (r *Repository) SaveWordMatches(ctx context.Context, matches []models.WordMatch) error {
	query := `
		INSERT INTO word_matches (video_id, word, start_ms, stop_ms, caption_index)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (video_id, word, start_ms, stop_ms, caption_index) DO NOTHING
	`

	for _, m := range matches {
		_, err := r.db.Pool.Exec(ctx, query,
			m.VideoID, m.Word, m.Start.Millis(), m.Stop.Millis(), m.CaptionIndex,
		)
		if err != nil {
			return fmt.Errorf("failed to save word match: %w", err)
		}
	}

	return nil
}

// GetWordMatches retrieves the detected occurrences for a video in caption
// order.
func (r *Repository) GetWordMatches(ctx context.Context, videoID string) ([]models.WordMatch, error) {
	query := `
		SELECT video_id, word, start_ms, stop_ms, caption_index
		FROM word_matches
		WHERE video_id = $1
		ORDER BY caption_index, word
	`

	rows, err := r.db.Pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get word matches: %w", err)
	}
	defer rows.Close()

	var matches []models.WordMatch
	for rows.Next() {
		var (
			m               models.WordMatch
			startMs, stopMs int64
		)
		if err := rows.Scan(&m.VideoID, &m.Word, &startMs, &stopMs, &m.CaptionIndex); err != nil {
			return nil, fmt.Errorf("failed to scan word match: %w", err)
		}
		m.Start = timecode.FromMillis(startMs)
		m.Stop = timecode.FromMillis(stopMs)
		matches = append(matches, m)
	}

	return matches, nil
}

// Segments

// SaveSegmentResults stores the terminal outcomes of one extraction and
// analysis run. Re-running a video overwrites the previous outcome of each
// segment.
func (r *Repository) SaveSegmentResults(ctx context.Context, videoID string, results []models.SegmentResult) error {
	query := `
		INSERT INTO segments (video_id, word, start_ms, stop_ms, caption_index, status,
		                      reason, output_path, storage_key, analysis_confidence,
		                      analysis_label, analyzer, analysis_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (video_id, word, start_ms, stop_ms) DO UPDATE
		SET status = EXCLUDED.status, reason = EXCLUDED.reason,
		    output_path = EXCLUDED.output_path, storage_key = EXCLUDED.storage_key,
		    analysis_confidence = EXCLUDED.analysis_confidence,
		    analysis_label = EXCLUDED.analysis_label, analyzer = EXCLUDED.analyzer,
		    analysis_error = EXCLUDED.analysis_error
	`

	for _, res := range results {
		var confidence *float64
		var label, analyzer *string
		if res.Analysis != nil {
			confidence = &res.Analysis.Confidence
			label = &res.Analysis.Label
			analyzer = &res.Analysis.Analyzer
		}

		_, err := r.db.Pool.Exec(ctx, query,
			videoID, res.Request.Word, res.Request.StartMs, res.Request.StopMs,
			res.Request.CaptionIndex, res.Status, res.Reason, res.OutputPath,
			res.StorageKey, confidence, label, analyzer, res.AnalysisError,
		)
		if err != nil {
			return fmt.Errorf("failed to save segment result: %w", err)
		}
	}

	return nil
}

// GetSegmentResults retrieves the stored segment outcomes for a video in
// reporting order.
func (r *Repository) GetSegmentResults(ctx context.Context, videoID string) ([]models.SegmentResult, error) {
	query := `
		SELECT word, start_ms, stop_ms, caption_index, status, COALESCE(reason, ''),
		       COALESCE(output_path, ''), COALESCE(storage_key, ''),
		       analysis_confidence, analysis_label, analyzer, COALESCE(analysis_error, '')
		FROM segments
		WHERE video_id = $1
		ORDER BY caption_index, word
	`

	rows, err := r.db.Pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get segment results: %w", err)
	}
	defer rows.Close()

	var results []models.SegmentResult
	for rows.Next() {
		var (
			res        models.SegmentResult
			confidence *float64
			label      *string
			analyzer   *string
		)
		res.Request.VideoID = videoID

		err := rows.Scan(
			&res.Request.Word, &res.Request.StartMs, &res.Request.StopMs,
			&res.Request.CaptionIndex, &res.Status, &res.Reason,
			&res.OutputPath, &res.StorageKey, &confidence, &label, &analyzer,
			&res.AnalysisError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan segment result: %w", err)
		}

		res.Request.OutputPath = res.OutputPath
		if confidence != nil && label != nil && analyzer != nil {
			res.Analysis = &models.SpeechAnalysis{
				Confidence: *confidence,
				Label:      *label,
				Analyzer:   *analyzer,
			}
		}
		results = append(results, res)
	}

	return results, nil
}
