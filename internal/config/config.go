package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Queue    QueueConfig
	Detector DetectorConfig
	Upload   UploadConfig
	Speech   SpeechConfig
	Webhook  WebhookConfig
	Jaeger   JaegerConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// DetectorConfig holds word detection and segment extraction configuration
type DetectorConfig struct {
	PaddingMs      int64
	MaxConcurrent  int
	ExtractTimeout time.Duration
	AnalyzeTimeout time.Duration
	FFmpegPath     string
	FFprobePath    string
	SegmentDir     string
	AudioBitrate   string
}

// UploadConfig holds media upload configuration
type UploadConfig struct {
	VideoDir         string
	SrtDir           string
	MaxSizeBytes     int64
	VideoExtensions  []string
	SrtExtensions    []string
}

// SpeechConfig holds speech analyzer configuration
type SpeechConfig struct {
	Mode     string
	Endpoint string
	Timeout  time.Duration
}

// WebhookConfig holds pipeline event notification configuration. An empty
// URL disables notifications.
type WebhookConfig struct {
	URL    string
	Secret string
}

// JaegerConfig holds tracing configuration
type JaegerConfig struct {
	Enabled  bool
	Endpoint string
}

// MetricsConfig holds the metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.readTimeout", "30s")
	viper.SetDefault("server.writeTimeout", "30s")
	viper.SetDefault("server.shutdownTimeout", "10s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "worddetect")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxConns", 25)
	viper.SetDefault("database.minConns", 5)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Storage defaults
	viper.SetDefault("storage.endpoint", "localhost:9000")
	viper.SetDefault("storage.accessKeyID", "minioadmin")
	viper.SetDefault("storage.secretAccessKey", "minioadmin")
	viper.SetDefault("storage.bucketName", "segments")
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.useSSL", false)

	// Queue defaults
	viper.SetDefault("queue.host", "localhost")
	viper.SetDefault("queue.port", 5672)
	viper.SetDefault("queue.user", "guest")
	viper.SetDefault("queue.password", "guest")
	viper.SetDefault("queue.vhost", "/")

	// Detector defaults
	viper.SetDefault("detector.paddingMs", 500)
	viper.SetDefault("detector.maxConcurrent", 4)
	viper.SetDefault("detector.extractTimeout", "2m")
	viper.SetDefault("detector.analyzeTimeout", "30s")
	viper.SetDefault("detector.ffmpegPath", "ffmpeg")
	viper.SetDefault("detector.ffprobePath", "ffprobe")
	viper.SetDefault("detector.segmentDir", "/tmp/worddetect/segments")
	viper.SetDefault("detector.audioBitrate", "320k")

	// Upload defaults
	viper.SetDefault("upload.videoDir", "/tmp/worddetect/videos")
	viper.SetDefault("upload.srtDir", "/tmp/worddetect/subtitles")
	viper.SetDefault("upload.maxSizeBytes", 4*1024*1024*1024) // 4GB
	viper.SetDefault("upload.videoExtensions", []string{".mp4", ".mkv", ".avi", ".mov"})
	viper.SetDefault("upload.srtExtensions", []string{".srt"})

	// Speech defaults
	viper.SetDefault("speech.mode", "mock")
	viper.SetDefault("speech.endpoint", "")
	viper.SetDefault("speech.timeout", "30s")

	// Webhook defaults
	viper.SetDefault("webhook.url", "")
	viper.SetDefault("webhook.secret", "")

	// Jaeger defaults
	viper.SetDefault("jaeger.enabled", false)
	viper.SetDefault("jaeger.endpoint", "http://localhost:14268/api/traces")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")
}
