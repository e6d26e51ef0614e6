package models

import "github.com/therealutkarshpriyadarshi/worddetect/pkg/timecode"

// WordMatch is a detected occurrence of a target word within a caption's
// display window. The match carries the whole caption range: without a real
// transcript there is no way to know where inside the window the word is
// spoken. (video, word, start, stop, caption index) is the uniqueness key,
// so reprocessing the same subtitle yields the same set.
type WordMatch struct {
	VideoID      string            `json:"video_id" db:"video_id"`
	Word         string            `json:"word" db:"word"`
	Start        timecode.TimeCode `json:"start" db:"start_time"`
	Stop         timecode.TimeCode `json:"stop" db:"stop_time"`
	CaptionIndex int               `json:"caption_index" db:"caption_index"`
}

// SegmentRequest is a planned audio cut-out: the match range widened by a
// symmetric padding and clamped to the media bounds.
type SegmentRequest struct {
	VideoID    string `json:"video_id"`
	Word       string `json:"word"`
	StartMs    int64  `json:"start_ms"`
	StopMs     int64  `json:"stop_ms"`
	OutputPath string `json:"output_path"`

	// CaptionIndex keeps the link back to the source caption for ordered
	// reporting. It is not part of the dedup key.
	CaptionIndex int `json:"caption_index"`
}

// SegmentResult is the terminal outcome of one SegmentRequest.
type SegmentResult struct {
	Request    SegmentRequest  `json:"request"`
	Status     string          `json:"status"`
	Reason     string          `json:"reason,omitempty"`
	OutputPath string          `json:"output_path,omitempty"`
	StorageKey string          `json:"storage_key,omitempty"`
	Analysis   *SpeechAnalysis `json:"analysis,omitempty"`

	// AnalysisError records a recoverable speech-backend failure for a
	// successfully extracted segment. It never flips Status: extraction
	// and analysis outcomes are tracked independently.
	AnalysisError string `json:"analysis_error,omitempty"`
}

// Segment outcome statuses
const (
	SegmentStatusSucceeded = "succeeded"
	SegmentStatusFailed    = "failed"
)

// Well-known extraction failure reasons
const (
	FailReasonTimeout      = "timeout"
	FailReasonProcessError = "process_error"
	FailReasonCanceled     = "canceled"
)

// SpeechAnalysis is the result of running a speech backend over one
// extracted segment.
type SpeechAnalysis struct {
	Confidence float64 `json:"confidence" db:"confidence"`
	Label      string  `json:"label" db:"label"`
	Analyzer   string  `json:"analyzer" db:"analyzer"`
}
