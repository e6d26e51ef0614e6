package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, int64(500), cfg.Detector.PaddingMs)
	assert.Equal(t, 4, cfg.Detector.MaxConcurrent)
	assert.Equal(t, "ffmpeg", cfg.Detector.FFmpegPath)
	assert.Equal(t, "320k", cfg.Detector.AudioBitrate)
	assert.Equal(t, "mock", cfg.Speech.Mode)
	assert.Equal(t, 30*time.Second, cfg.Speech.Timeout)
	assert.Equal(t, "worddetect", cfg.Database.DBName)
	assert.Equal(t, []string{".srt"}, cfg.Upload.SrtExtensions)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	doc := `
server:
  port: 9999
detector:
  paddingMs: 1500
  maxConcurrent: 8
speech:
  mode: remote
  endpoint: http://stt:8000/analyze
`
	cfg, err := Load(writeConfig(t, doc))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, int64(1500), cfg.Detector.PaddingMs)
	assert.Equal(t, 8, cfg.Detector.MaxConcurrent)
	assert.Equal(t, "remote", cfg.Speech.Mode)
	assert.Equal(t, "http://stt:8000/analyze", cfg.Speech.Endpoint)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
