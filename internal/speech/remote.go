package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
)

// Remote sends extracted segments to an HTTP speech backend. It satisfies
// the same contract as the mock: the orchestrator treats its typed failures
// as recoverable per-segment outcomes, never as pipeline-fatal.
type Remote struct {
	endpoint string
	client   *http.Client
}

// NewRemote creates a remote analyzer targeting the given backend endpoint
func NewRemote(endpoint string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Remote{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name returns the analyzer identity
func (r *Remote) Name() string {
	return ModeRemote
}

type remoteResponse struct {
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

// Analyze uploads the segment audio and decodes the backend's scoring.
func (r *Remote) Analyze(ctx context.Context, segmentPath string) (*models.SpeechAnalysis, error) {
	audio, err := os.ReadFile(segmentPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read segment: %v", ErrRejected, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("segment", filepath.Base(segmentPath))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: backend returned %d: %s", ErrRejected, resp.StatusCode, respBody)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: backend returned %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded remoteResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("%w: undecodable backend response: %v", ErrUnavailable, err)
	}

	return &models.SpeechAnalysis{
		Confidence: decoded.Confidence,
		Label:      decoded.Label,
		Analyzer:   ModeRemote,
	}, nil
}
