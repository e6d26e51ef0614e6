package models

import "time"

// Video represents an uploaded movie with its subtitle file
type Video struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	VideoPath     string    `json:"video_path" db:"video_path"`
	SrtPath       string    `json:"srt_path" db:"srt_path"`
	DurationMs    int64     `json:"duration_ms" db:"duration_ms"`
	Status        string    `json:"status" db:"status"`
	FailedStage   string    `json:"failed_stage,omitempty" db:"failed_stage"`
	FailureReason string    `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Processing states. A video advances monotonically through these; any
// stage failure moves it to Failed and stops further automatic progression.
const (
	VideoStatusUploaded         = "uploaded"
	VideoStatusSrtProcessed     = "srt_processed"
	VideoStatusAudioExtracted   = "audio_extracted"
	VideoStatusAnalysisComplete = "analysis_complete"
	VideoStatusFailed           = "failed"
)

// Pipeline stage names recorded when a video fails
const (
	StageSrtParsing = "srt_parsing"
	StageExtraction = "audio_extraction"
	StageAnalysis   = "speech_analysis"
)
