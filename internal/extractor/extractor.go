package extractor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
)

// Cutter is the external transcoding boundary: cut one audio sub-range of a
// source media file into a standalone output file.
type Cutter interface {
	CutSegment(ctx context.Context, inputPath string, startMs, durationMs int64, outputPath string) error
}

// Extractor runs segment extractions with a bounded worker pool. One failed
// or timed-out extraction never cancels its siblings: every submitted
// request gets exactly one terminal SegmentResult.
type Extractor struct {
	cutter        Cutter
	maxConcurrent int
	timeout       time.Duration
}

// New creates an extractor. maxConcurrent bounds the number of simultaneous
// external processes; timeout bounds each individual extraction.
func New(cutter Cutter, maxConcurrent int, timeout time.Duration) *Extractor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Extractor{
		cutter:        cutter,
		maxConcurrent: maxConcurrent,
		timeout:       timeout,
	}
}

// Extract cuts every requested segment from sourcePath and returns one
// result per request, in request order. Cancelling ctx stops dispatching
// new extractions; in-flight ones run to completion or their own timeout so
// no partially written file is ever reported as a success. Requests never
// dispatched are failed with a canceled reason.
func (e *Extractor) Extract(ctx context.Context, sourcePath string, requests []models.SegmentRequest) []models.SegmentResult {
	results := make([]models.SegmentResult, len(requests))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := e.maxConcurrent
	if workers > len(requests) {
		workers = len(requests)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.extractOne(ctx, sourcePath, requests[i])
			}
		}()
	}

	for i := range requests {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (e *Extractor) extractOne(ctx context.Context, sourcePath string, req models.SegmentRequest) models.SegmentResult {
	result := models.SegmentResult{Request: req}

	if ctx.Err() != nil {
		result.Status = models.SegmentStatusFailed
		result.Reason = models.FailReasonCanceled
		return result
	}

	// Detach from the run's cancellation so an in-flight ffmpeg process is
	// never killed mid-write; the per-task deadline still bounds it.
	taskCtx := context.WithoutCancel(ctx)
	if e.timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, e.timeout)
		defer cancel()
	}

	err := e.cutter.CutSegment(taskCtx, sourcePath, req.StartMs, req.StopMs-req.StartMs, req.OutputPath)
	if err != nil {
		result.Status = models.SegmentStatusFailed
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			result.Reason = models.FailReasonTimeout
		} else {
			result.Reason = fmt.Sprintf("%s: %v", models.FailReasonProcessError, err)
		}
		return result
	}

	result.Status = models.SegmentStatusSucceeded
	result.OutputPath = req.OutputPath
	return result
}
