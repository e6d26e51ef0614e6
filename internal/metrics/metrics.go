package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worddetect_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worddetect_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Upload Metrics
	VideoUploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worddetect_video_uploads_total",
			Help: "Total number of video uploads",
		},
	)

	VideoUploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worddetect_video_upload_size_bytes",
			Help:    "Size of uploaded videos in bytes",
			Buckets: prometheus.ExponentialBuckets(1024*1024, 2, 15), // 1MB to 16GB
		},
	)

	// Detection Metrics
	CaptionsParsedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worddetect_captions_parsed_total",
			Help: "Total number of subtitle caption blocks parsed",
		},
	)

	WordMatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worddetect_word_matches_total",
			Help: "Total number of target word occurrences detected",
		},
	)

	SegmentRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worddetect_segment_requests_total",
			Help: "Total number of audio segment extraction requests planned",
		},
	)

	SegmentsExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worddetect_segments_extracted_total",
			Help: "Total number of audio segment extractions by outcome",
		},
		[]string{"status"},
	)

	SegmentExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worddetect_segment_extraction_duration_seconds",
			Help:    "Duration of one extraction batch in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	SpeechAnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worddetect_speech_analyses_total",
			Help: "Total number of speech analyses by analyzer and outcome",
		},
		[]string{"analyzer", "status"},
	)

	// Pipeline Metrics
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worddetect_pipeline_runs_total",
			Help: "Total number of detection pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worddetect_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"stage"},
	)

	PipelineRunsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "worddetect_pipeline_runs_in_progress",
			Help: "Number of detection runs currently executing",
		},
	)

	// Queue Metrics
	JobsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worddetect_jobs_published_total",
			Help: "Total number of detection jobs published to the queue",
		},
	)

	JobsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worddetect_jobs_consumed_total",
			Help: "Total number of detection jobs consumed by outcome",
		},
		[]string{"status"},
	)
)
