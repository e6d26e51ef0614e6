package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Notification events
const (
	EventDetectionCompleted = "detection.completed"
	EventDetectionFailed    = "detection.failed"
)

// Event is the payload delivered to the configured endpoint
type Event struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// CompletedPayload describes a finished detection run
type CompletedPayload struct {
	VideoID      string `json:"video_id"`
	MatchCount   int    `json:"match_count"`
	SegmentCount int    `json:"segment_count"`
}

// FailedPayload describes a detection run that died at a stage
type FailedPayload struct {
	VideoID string `json:"video_id"`
	Stage   string `json:"stage"`
	Reason  string `json:"reason"`
}

// Service delivers pipeline event notifications to a single configured
// endpoint. Delivery is fire-and-retry: a handful of in-process attempts
// with backoff, then the event is dropped. Notifications are advisory; the
// database holds the authoritative outcome.
type Service struct {
	client   *http.Client
	url      string
	secret   string
	attempts int
	backoff  time.Duration
}

// NewService creates a webhook service for the given endpoint. An empty URL
// yields a disabled service whose Notify is a no-op.
func NewService(url, secret string) *Service {
	return &Service{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		url:      url,
		secret:   secret,
		attempts: 3,
		backoff:  2 * time.Second,
	}
}

// Enabled reports whether an endpoint is configured
func (s *Service) Enabled() bool {
	return s.url != ""
}

// NotifyCompleted sends a notification for a finished detection run
func (s *Service) NotifyCompleted(ctx context.Context, report *CompletedPayload) error {
	return s.notify(ctx, EventDetectionCompleted, report)
}

// NotifyFailed sends a notification for a failed detection run
func (s *Service) NotifyFailed(ctx context.Context, videoID, stage, reason string) error {
	return s.notify(ctx, EventDetectionFailed, &FailedPayload{
		VideoID: videoID,
		Stage:   stage,
		Reason:  reason,
	})
}

func (s *Service) notify(ctx context.Context, event string, data interface{}) error {
	if !s.Enabled() {
		return nil
	}

	payload, err := json.Marshal(Event{
		ID:        uuid.New().String(),
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff << (attempt - 1)):
			}
		}

		if lastErr = s.deliver(ctx, event, payload); lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("webhook delivery failed after %d attempts: %w", s.attempts, lastErr)
}

func (s *Service) deliver(ctx context.Context, event string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "WordDetect-Webhook/1.0")
	req.Header.Set("X-Webhook-Event", event)

	if s.secret != "" {
		req.Header.Set("X-Webhook-Signature", Signature(payload, s.secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

// Signature computes the HMAC-SHA256 signature receivers use to verify a
// payload.
func Signature(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
