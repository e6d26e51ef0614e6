package models

import "time"

// DetectionJob is a queued request to run the detection pipeline for one
// video. The target word set is resolved by the worker at pickup time, not
// frozen at enqueue time.
type DetectionJob struct {
	ID         string    `json:"id"`
	VideoID    string    `json:"video_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
