package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/cache"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/config"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/database"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/extractor"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/logging"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/metrics"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/middleware"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/queue"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/storage"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/tracing"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/upload"
)

// API bundles the collaborators the HTTP handlers need
type API struct {
	repo    *database.Repository
	cache   *cache.Cache
	storage *storage.Storage
	queue   *queue.Queue
	uploads *upload.Service
	ffmpeg  *extractor.FFmpeg
	log     *logging.Logger
}

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
		_, closer, err := tracing.InitTracer("worddetect-api", cfg.Jaeger.Endpoint)
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

	// Initialize upload service
	uploads, err := upload.NewService(cfg.Upload)
	if err != nil {
		log.Fatalf("Failed to initialize upload service: %v", err)
	}

	ffmpeg := extractor.NewFFmpeg(cfg.Detector.FFmpegPath, cfg.Detector.FFprobePath, cfg.Detector.AudioBitrate)

	api := &API{
		repo:    repo,
		cache:   cch,
		storage: stor,
		queue:   q,
		uploads: uploads,
		ffmpeg:  ffmpeg,
		log:     log,
	}

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

	// Setup router
	router := setupRouter(api, log)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}

func setupRouter(api *API, log *logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))
	router.Use(middleware.RateLimit(middleware.NewRateLimiter(20, 40)))

	// Health check
	router.GET("/health", api.healthCheck)

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Videos
		v1.POST("/videos", api.uploadVideo)
		v1.GET("/videos", api.listVideos)
		v1.GET("/videos/:id", api.getVideo)
		v1.GET("/videos/:id/status", api.getVideoStatus)
		v1.DELETE("/videos/:id", api.deleteVideo)

		// Detection
		v1.POST("/videos/:id/process", api.processVideo)
		v1.GET("/videos/:id/matches", api.getWordMatches)
		v1.GET("/videos/:id/segments", api.getSegmentResults)
		v1.GET("/videos/:id/segments/url", api.getSegmentURL)

		// Word list
		v1.GET("/words", api.listWords)
		v1.POST("/words", api.addWord)
		v1.DELETE("/words/:word", api.removeWord)
	}

	return router
}
