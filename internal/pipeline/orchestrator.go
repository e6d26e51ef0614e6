package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/worddetect/internal/detector"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/logging"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/metrics"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/speech"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/subtitle"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/tracing"
	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
)

// ErrAlreadyProcessing is returned when a second run is requested for a
// video whose previous run has not finished. At most one run per video may
// be active at a time.
var ErrAlreadyProcessing = errors.New("video is already being processed")

// StageError is a pipeline-fatal failure: it names the stage that killed
// the run and wraps the underlying cause.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Store is the persistence collaborator. The orchestrator exclusively owns
// video state transitions; everything else is appended, never mutated.
type Store interface {
	UpdateVideoStatus(ctx context.Context, videoID, status string) error
	MarkVideoFailed(ctx context.Context, videoID, stage, reason string) error
	SaveWordMatches(ctx context.Context, matches []models.WordMatch) error
	SaveSegmentResults(ctx context.Context, videoID string, results []models.SegmentResult) error
}

// Prober measures media duration for clamping padded segment ranges.
type Prober interface {
	ProbeDuration(ctx context.Context, inputPath string) (int64, error)
}

// Extractor cuts a batch of audio segments from a source media file.
type Extractor interface {
	Extract(ctx context.Context, sourcePath string, requests []models.SegmentRequest) []models.SegmentResult
}

// Uploader pushes successfully extracted segments to object storage. It is
// optional; without one, segments stay on local disk only.
type Uploader interface {
	UploadSegment(ctx context.Context, videoID, localPath string) (string, error)
}

// Config holds the per-run tunables of the pipeline.
type Config struct {
	PaddingMs         int64
	SegmentDir        string
	AnalyzeConcurrent int
	AnalyzeTimeout    time.Duration
}

// Report is the ordered outcome of a full pipeline run.
type Report struct {
	VideoID     string                 `json:"video_id"`
	Matches     []models.WordMatch     `json:"matches"`
	Results     []models.SegmentResult `json:"results"`
	FinalStatus string                 `json:"final_status"`
}

// Orchestrator drives a video through parse, match, plan, extract and
// analyze, and owns the video's processing state transitions.
type Orchestrator struct {
	store     Store
	prober    Prober
	extractor Extractor
	analyzer  speech.Analyzer
	uploader  Uploader
	cfg       Config
	log       *logging.Logger

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// New creates an orchestrator. uploader may be nil.
func New(store Store, prober Prober, ext Extractor, analyzer speech.Analyzer, uploader Uploader, cfg Config, log *logging.Logger) *Orchestrator {
	if cfg.AnalyzeConcurrent < 1 {
		cfg.AnalyzeConcurrent = 1
	}
	return &Orchestrator{
		store:     store,
		prober:    prober,
		extractor: ext,
		analyzer:  analyzer,
		uploader:  uploader,
		cfg:       cfg,
		log:       log,
	}
}

// Cancel aborts the active run for a video, if any. Cancellation stops new
// extraction/analysis dispatch; in-flight external work finishes or times
// out on its own.
func (o *Orchestrator) Cancel(videoID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	cancel, ok := o.active[videoID]
	if ok {
		cancel()
	}
	return ok
}

func (o *Orchestrator) acquire(ctx context.Context, videoID string) (context.Context, context.CancelFunc, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == nil {
		o.active = make(map[string]context.CancelFunc)
	}
	if _, running := o.active[videoID]; running {
		return nil, nil, ErrAlreadyProcessing
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.active[videoID] = cancel
	return runCtx, cancel, nil
}

func (o *Orchestrator) release(videoID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, videoID)
}

// Process runs the full detection pipeline for one video against an
// immutable word-set snapshot. Parsing errors are fatal for the run and
// move the video to Failed; extraction and analysis failures are recorded
// per segment and never abort the batch. Reprocessing a video with the same
// subtitle and word set is idempotent: identical matches, identical segment
// requests, identical output paths.
func (o *Orchestrator) Process(ctx context.Context, video *models.Video, words []string) (*Report, error) {
	runCtx, cancel, err := o.acquire(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer o.release(video.ID)

	metrics.PipelineRunsInProgress.Inc()
	defer metrics.PipelineRunsInProgress.Dec()

	log := o.log.WithVideoID(video.ID)
	log.Infof("Starting detection run with %d target words", len(words))

	matches, err := o.runSrtStage(runCtx, video, words)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	results, err := o.runExtractStage(runCtx, video, matches)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	results = o.runAnalyzeStage(runCtx, video, results)

	// Execution order is concurrent and unordered; reports are not.
	sortResults(results)

	if err := o.store.SaveSegmentResults(runCtx, video.ID, results); err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		return nil, o.fail(runCtx, video, models.StageAnalysis, err)
	}
	if err := o.store.UpdateVideoStatus(runCtx, video.ID, models.VideoStatusAnalysisComplete); err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("failed").Inc()
		return nil, o.fail(runCtx, video, models.StageAnalysis, err)
	}

	metrics.PipelineRunsTotal.WithLabelValues("completed").Inc()
	log.Infof("Detection run complete: %d matches, %d segments", len(matches), len(results))

	return &Report{
		VideoID:     video.ID,
		Matches:     matches,
		Results:     results,
		FinalStatus: models.VideoStatusAnalysisComplete,
	}, nil
}

// runSrtStage parses the subtitle document and matches it against the word
// set. Any parse error is stage-fatal.
func (o *Orchestrator) runSrtStage(ctx context.Context, video *models.Video, words []string) ([]models.WordMatch, error) {
	span, ctx := tracing.StartSpan(ctx, "pipeline.srt")
	defer span.Finish()
	tracing.SetTag(span, "video_id", video.ID)

	started := time.Now()

	doc, err := os.ReadFile(video.SrtPath)
	if err != nil {
		tracing.LogError(span, err)
		return nil, o.fail(ctx, video, models.StageSrtParsing, err)
	}

	captions, err := subtitle.Parse(string(doc))
	if err != nil {
		tracing.LogError(span, err)
		return nil, o.fail(ctx, video, models.StageSrtParsing, err)
	}
	metrics.CaptionsParsedTotal.Add(float64(len(captions)))

	matches := detector.Match(video.ID, captions, words)
	metrics.WordMatchesTotal.Add(float64(len(matches)))

	if err := o.store.SaveWordMatches(ctx, matches); err != nil {
		tracing.LogError(span, err)
		return nil, o.fail(ctx, video, models.StageSrtParsing, err)
	}
	if err := o.store.UpdateVideoStatus(ctx, video.ID, models.VideoStatusSrtProcessed); err != nil {
		tracing.LogError(span, err)
		return nil, o.fail(ctx, video, models.StageSrtParsing, err)
	}

	elapsed := time.Since(started)
	metrics.PipelineStageDuration.WithLabelValues(models.StageSrtParsing).Observe(elapsed.Seconds())
	o.log.LogPipelineStage(video.ID, models.StageSrtParsing, elapsed, nil)

	return matches, nil
}

// runExtractStage plans and cuts audio segments. The stage never fails
// wholesale once planning succeeds: individual extraction failures stay in
// their own SegmentResult.
func (o *Orchestrator) runExtractStage(ctx context.Context, video *models.Video, matches []models.WordMatch) ([]models.SegmentResult, error) {
	span, ctx := tracing.StartSpan(ctx, "pipeline.extract")
	defer span.Finish()
	tracing.SetTag(span, "video_id", video.ID)
	tracing.SetTag(span, "matches", len(matches))

	started := time.Now()

	durationMs := video.DurationMs
	if durationMs <= 0 && len(matches) > 0 {
		probed, err := o.prober.ProbeDuration(ctx, video.VideoPath)
		if err != nil {
			tracing.LogError(span, err)
			return nil, o.fail(ctx, video, models.StageExtraction, err)
		}
		durationMs = probed
	}

	requests, err := detector.Plan(matches, o.cfg.PaddingMs, durationMs, o.cfg.SegmentDir)
	if err != nil {
		tracing.LogError(span, err)
		return nil, o.fail(ctx, video, models.StageExtraction, err)
	}
	metrics.SegmentRequestsTotal.Add(float64(len(requests)))

	results := o.extractor.Extract(ctx, video.VideoPath, requests)

	succeeded := 0
	for i := range results {
		if results[i].Status == models.SegmentStatusSucceeded {
			succeeded++
			o.uploadSegment(ctx, video.ID, &results[i])
		}
		metrics.SegmentsExtractedTotal.WithLabelValues(results[i].Status).Inc()
	}

	if err := o.store.UpdateVideoStatus(ctx, video.ID, models.VideoStatusAudioExtracted); err != nil {
		tracing.LogError(span, err)
		return nil, o.fail(ctx, video, models.StageExtraction, err)
	}

	elapsed := time.Since(started)
	metrics.SegmentExtractionDuration.Observe(elapsed.Seconds())
	metrics.PipelineStageDuration.WithLabelValues(models.StageExtraction).Observe(elapsed.Seconds())
	o.log.LogExtractionBatch(video.ID, len(requests), succeeded, len(requests)-succeeded, elapsed)

	return results, nil
}

// uploadSegment pushes one extracted segment to object storage. Upload
// failures are logged but never fail the segment: the local file is the
// artifact of record.
func (o *Orchestrator) uploadSegment(ctx context.Context, videoID string, result *models.SegmentResult) {
	if o.uploader == nil {
		return
	}
	key, err := o.uploader.UploadSegment(ctx, videoID, result.OutputPath)
	if err != nil {
		o.log.WithVideoID(videoID).WithSegment(result.OutputPath).WithError(err).Warn("Segment upload failed")
		return
	}
	result.StorageKey = key
}

// runAnalyzeStage fans successfully extracted segments out to the speech
// analyzer with bounded concurrency. Analyzer failures are recoverable and
// recorded per segment.
func (o *Orchestrator) runAnalyzeStage(ctx context.Context, video *models.Video, results []models.SegmentResult) []models.SegmentResult {
	span, ctx := tracing.StartSpan(ctx, "pipeline.analyze")
	defer span.Finish()
	tracing.SetTag(span, "video_id", video.ID)
	tracing.SetTag(span, "analyzer", o.analyzer.Name())

	started := time.Now()

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < o.cfg.AnalyzeConcurrent; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				o.analyzeOne(ctx, &results[i])
			}
		}()
	}

	for i := range results {
		if results[i].Status == models.SegmentStatusSucceeded {
			jobs <- i
		}
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(started)
	metrics.PipelineStageDuration.WithLabelValues(models.StageAnalysis).Observe(elapsed.Seconds())
	o.log.LogPipelineStage(video.ID, models.StageAnalysis, elapsed, nil)

	return results
}

func (o *Orchestrator) analyzeOne(ctx context.Context, result *models.SegmentResult) {
	if ctx.Err() != nil {
		result.AnalysisError = models.FailReasonCanceled
		metrics.SpeechAnalysesTotal.WithLabelValues(o.analyzer.Name(), "canceled").Inc()
		return
	}

	taskCtx := context.WithoutCancel(ctx)
	if o.cfg.AnalyzeTimeout > 0 {
		var cancelTask context.CancelFunc
		taskCtx, cancelTask = context.WithTimeout(taskCtx, o.cfg.AnalyzeTimeout)
		defer cancelTask()
	}

	analysis, err := o.analyzer.Analyze(taskCtx, result.OutputPath)
	if err != nil {
		// Unavailable and rejected backends are segment-local outcomes,
		// not pipeline failures.
		result.AnalysisError = err.Error()
		metrics.SpeechAnalysesTotal.WithLabelValues(o.analyzer.Name(), "failed").Inc()
		return
	}

	result.Analysis = analysis
	metrics.SpeechAnalysesTotal.WithLabelValues(o.analyzer.Name(), "succeeded").Inc()
}

// fail records a stage-fatal error: video state goes to Failed with the
// stage and reason, earlier artifacts are kept as-is.
func (o *Orchestrator) fail(ctx context.Context, video *models.Video, stage string, cause error) error {
	o.log.LogPipelineStage(video.ID, stage, 0, cause)

	// Best effort: state recording must not mask the original failure.
	if err := o.store.MarkVideoFailed(context.WithoutCancel(ctx), video.ID, stage, cause.Error()); err != nil {
		o.log.WithVideoID(video.ID).WithError(err).Error("Failed to record failure state")
	}

	return &StageError{Stage: stage, Err: cause}
}

// sortResults orders segment results by (caption index, word) for
// deterministic reporting.
func sortResults(results []models.SegmentResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Request, results[j].Request
		if a.CaptionIndex != b.CaptionIndex {
			return a.CaptionIndex < b.CaptionIndex
		}
		return a.Word < b.Word
	})
}
