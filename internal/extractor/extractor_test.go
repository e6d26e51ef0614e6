package extractor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
)

// stubCutter records concurrency and fails selected output paths.
type stubCutter struct {
	mu         sync.Mutex
	active     int32
	maxActive  int32
	calls      int
	failPaths  map[string]error
	delay      time.Duration
	honorCtx   bool
}

func (s *stubCutter) CutSegment(ctx context.Context, inputPath string, startMs, durationMs int64, outputPath string) error {
	cur := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)

	for {
		prev := atomic.LoadInt32(&s.maxActive)
		if cur <= prev || atomic.CompareAndSwapInt32(&s.maxActive, prev, cur) {
			break
		}
	}

	s.mu.Lock()
	s.calls++
	err := s.failPaths[outputPath]
	s.mu.Unlock()

	if s.delay > 0 {
		if s.honorCtx {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			time.Sleep(s.delay)
		}
	}

	return err
}

func requestsN(n int) []models.SegmentRequest {
	reqs := make([]models.SegmentRequest, n)
	for i := range reqs {
		reqs[i] = models.SegmentRequest{
			VideoID:      "vid-1",
			Word:         "damn",
			StartMs:      int64(i * 1000),
			StopMs:       int64(i*1000 + 500),
			OutputPath:   fmt.Sprintf("/tmp/segments/vid-1-damn-%08d.mp3", i*1000),
			CaptionIndex: i + 1,
		}
	}
	return reqs
}

func TestExtract_AllSucceed(t *testing.T) {
	cutter := &stubCutter{}
	e := New(cutter, 4, time.Second)

	reqs := requestsN(10)
	results := e.Extract(context.Background(), "/tmp/movie.mp4", reqs)

	require.Len(t, results, 10)
	for i, res := range results {
		assert.Equal(t, models.SegmentStatusSucceeded, res.Status)
		assert.Equal(t, reqs[i].OutputPath, res.OutputPath)
	}
	assert.Equal(t, 10, cutter.calls)
}

func TestExtract_BoundedConcurrency(t *testing.T) {
	cutter := &stubCutter{delay: 20 * time.Millisecond}
	e := New(cutter, 3, time.Second)

	e.Extract(context.Background(), "/tmp/movie.mp4", requestsN(12))

	assert.LessOrEqual(t, cutter.maxActive, int32(3))
}

func TestExtract_PartialFailureIsolation(t *testing.T) {
	reqs := requestsN(5)
	cutter := &stubCutter{
		failPaths: map[string]error{
			reqs[2].OutputPath: errors.New("corrupt timestamp range"),
		},
	}
	e := New(cutter, 2, time.Second)

	results := e.Extract(context.Background(), "/tmp/movie.mp4", reqs)

	// One failure among N requests still yields exactly N terminal results,
	// with the failure isolated to its own entry.
	require.Len(t, results, 5)
	for i, res := range results {
		if i == 2 {
			assert.Equal(t, models.SegmentStatusFailed, res.Status)
			assert.Contains(t, res.Reason, models.FailReasonProcessError)
			assert.Contains(t, res.Reason, "corrupt timestamp range")
		} else {
			assert.Equal(t, models.SegmentStatusSucceeded, res.Status)
		}
	}
}

func TestExtract_Timeout(t *testing.T) {
	cutter := &stubCutter{delay: 200 * time.Millisecond, honorCtx: true}
	e := New(cutter, 1, 10*time.Millisecond)

	results := e.Extract(context.Background(), "/tmp/movie.mp4", requestsN(1))

	require.Len(t, results, 1)
	assert.Equal(t, models.SegmentStatusFailed, results[0].Status)
	assert.Equal(t, models.FailReasonTimeout, results[0].Reason)
}

func TestExtract_CancellationStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cutter := &stubCutter{}
	e := New(cutter, 2, time.Second)

	results := e.Extract(ctx, "/tmp/movie.mp4", requestsN(6))

	// Every request still gets a terminal result.
	require.Len(t, results, 6)
	for _, res := range results {
		assert.Equal(t, models.SegmentStatusFailed, res.Status)
		assert.Equal(t, models.FailReasonCanceled, res.Reason)
	}
	assert.Equal(t, 0, cutter.calls)
}

func TestExtract_EmptyBatch(t *testing.T) {
	e := New(&stubCutter{}, 4, time.Second)
	results := e.Extract(context.Background(), "/tmp/movie.mp4", nil)
	assert.Empty(t, results)
}

func TestExtract_PreservesRequestOrder(t *testing.T) {
	cutter := &stubCutter{delay: 5 * time.Millisecond}
	e := New(cutter, 8, time.Second)

	reqs := requestsN(20)
	results := e.Extract(context.Background(), "/tmp/movie.mp4", reqs)

	require.Len(t, results, 20)
	for i := range reqs {
		assert.Equal(t, reqs[i], results[i].Request)
	}
}
