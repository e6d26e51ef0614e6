package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/therealutkarshpriyadarshi/worddetect/internal/cache"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/config"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/database"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/extractor"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/logging"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/metrics"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/pipeline"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/queue"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/speech"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/storage"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/tracing"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/webhook"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/wordlist"
	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewLogger(logging.Config(cfg.Log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Jaeger.Enabled {
		_, closer, err := tracing.InitTracer("worddetect-worker", cfg.Jaeger.Endpoint)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer closer.Close()
	}

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	// Initialize cache
	cch, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cch.Close()

	// Initialize storage
	stor, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize queue
	q, err := queue.New(cfg.Queue)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	// Initialize speech analyzer
	analyzer, err := speech.NewAnalyzer(speech.Options{
		Mode:     cfg.Speech.Mode,
		Endpoint: cfg.Speech.Endpoint,
		Timeout:  cfg.Speech.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize speech analyzer: %v", err)
	}

	// Assemble the detection pipeline
	ffmpeg := extractor.NewFFmpeg(cfg.Detector.FFmpegPath, cfg.Detector.FFprobePath, cfg.Detector.AudioBitrate)
	ext := extractor.New(ffmpeg, cfg.Detector.MaxConcurrent, cfg.Detector.ExtractTimeout)

	orch := pipeline.New(repo, ffmpeg, ext, analyzer, stor, pipeline.Config{
		PaddingMs:         cfg.Detector.PaddingMs,
		SegmentDir:        cfg.Detector.SegmentDir,
		AnalyzeConcurrent: cfg.Detector.MaxConcurrent,
		AnalyzeTimeout:    cfg.Detector.AnalyzeTimeout,
	}, log)

	// The word list lives in the database; the in-memory store hands each
	// run a stable snapshot.
	words := wordlist.NewStore(nil)

	notifier := webhook.NewService(cfg.Webhook.URL, cfg.Webhook.Secret)

	// Start metrics server
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Errorf("Metrics server error: %v", err)
			}
		}()
		defer metricsServer.Shutdown(context.Background())
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down worker gracefully...")
		cancel()
	}()

	// Job handler
	jobHandler := func(job *models.DetectionJob) error {
		jobLog := log.WithVideoID(job.VideoID)
		jobLog.Infof("Processing detection job %s", job.ID)

		video, err := repo.GetVideo(ctx, job.VideoID)
		if err != nil {
			jobLog.Errorf("Failed to load video: %v", err)
			// Requeueing a job for a missing video would spin forever.
			if errors.Is(err, database.ErrNotFound) {
				return nil
			}
			return err
		}

		// Refresh the word-set snapshot from the database for this run.
		stored, err := repo.ListWords(ctx)
		if err != nil {
			jobLog.Errorf("Failed to load word list: %v", err)
			return err
		}
		list := make([]string, 0, len(stored))
		for _, w := range stored {
			list = append(list, w.Word)
		}
		words.Replace(list)

		report, err := orch.Process(ctx, video, words.Snapshot())
		if err != nil {
			if errors.Is(err, pipeline.ErrAlreadyProcessing) {
				jobLog.Warn("Run already in flight, requeueing")
				return err
			}
			// Stage failures are recorded on the video; the job itself is
			// done.
			jobLog.Errorf("Detection run failed: %v", err)

			var stageErr *pipeline.StageError
			if errors.As(err, &stageErr) {
				if nerr := notifier.NotifyFailed(ctx, video.ID, stageErr.Stage, stageErr.Err.Error()); nerr != nil {
					jobLog.Warnf("Failed to send failure notification: %v", nerr)
				}
			}
			return nil
		}

		if nerr := notifier.NotifyCompleted(ctx, &webhook.CompletedPayload{
			VideoID:      video.ID,
			MatchCount:   len(report.Matches),
			SegmentCount: len(report.Results),
		}); nerr != nil {
			jobLog.Warnf("Failed to send completion notification: %v", nerr)
		}

		// Drop stale cached reads now that fresh results exist.
		if err := cch.InvalidateVideo(ctx, video.ID); err != nil {
			jobLog.Warnf("Failed to invalidate cache: %v", err)
		}
		if err := cch.IncrementStat(ctx, "detection_runs"); err != nil {
			jobLog.Warnf("Failed to bump stats: %v", err)
		}

		jobLog.Infof("Detection job %s complete: %d matches, %d segments",
			job.ID, len(report.Matches), len(report.Results))
		return nil
	}

	// Start consuming jobs
	log.Info("Worker started, waiting for detection jobs...")
	if err := q.ConsumeJobs(ctx, jobHandler); err != nil {
		log.Fatalf("Failed to consume jobs: %v", err)
	}

	// Wait for shutdown
	<-ctx.Done()
	log.Info("Worker stopped")
}
