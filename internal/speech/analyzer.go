package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
)

// Typed analysis failures. Both are recoverable per segment: the pipeline
// records them and moves on instead of aborting the batch.
var (
	// ErrUnavailable means the speech backend could not be reached.
	ErrUnavailable = errors.New("analysis unavailable")
	// ErrRejected means the backend refused the segment (malformed or
	// too-short audio).
	ErrRejected = errors.New("analysis rejected")
)

// Analyzer scores/transcribes one extracted audio segment.
type Analyzer interface {
	Analyze(ctx context.Context, segmentPath string) (*models.SpeechAnalysis, error)

	// Name identifies the backend variant ("mock", "remote").
	Name() string
}

// Analyzer modes
const (
	ModeMock   = "mock"
	ModeRemote = "remote"
)

// Options configures analyzer construction.
type Options struct {
	Mode     string
	Endpoint string
	Timeout  time.Duration
}

// NewAnalyzer builds the analyzer variant selected at construction time.
// The variant is fixed for the lifetime of the orchestrator; nothing
// downstream inspects the concrete type.
func NewAnalyzer(opts Options) (Analyzer, error) {
	switch opts.Mode {
	case ModeMock, "":
		return NewMock(), nil
	case ModeRemote:
		if opts.Endpoint == "" {
			return nil, fmt.Errorf("remote analyzer requires an endpoint")
		}
		return NewRemote(opts.Endpoint, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported analyzer mode: %s", opts.Mode)
	}
}
