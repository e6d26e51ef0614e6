package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// FFmpeg wraps the external ffmpeg/ffprobe binaries used to probe media
// duration and cut audio segments.
type FFmpeg struct {
	ffmpegPath   string
	ffprobePath  string
	audioBitrate string
}

// NewFFmpeg creates a new FFmpeg instance
func NewFFmpeg(ffmpegPath, ffprobePath, audioBitrate string) *FFmpeg {
	if audioBitrate == "" {
		audioBitrate = "320k"
	}
	return &FFmpeg{
		ffmpegPath:   ffmpegPath,
		ffprobePath:  ffprobePath,
		audioBitrate: audioBitrate,
	}
}

// ProbeDuration returns the media duration in milliseconds using ffprobe.
func (f *FFmpeg) ProbeDuration(ctx context.Context, inputPath string) (int64, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, stderr.String())
	}

	var metadata struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}

	if err := json.Unmarshal(stdout.Bytes(), &metadata); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(metadata.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", metadata.Format.Duration, err)
	}

	return int64(seconds * 1000), nil
}

// CutSegment extracts the [startMs, startMs+durationMs) audio sub-range of
// the source media into a standalone file at outputPath. A non-zero exit or
// a missing output file is an extraction failure.
func (f *FFmpeg) CutSegment(ctx context.Context, inputPath string, startMs, durationMs int64, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create segment directory: %w", err)
	}

	args := []string{
		"-ss", formatSeconds(startMs),
		"-i", inputPath,
		"-t", formatSeconds(durationMs),
		"-vn", // audio only
		"-c:a", "libmp3lame",
		"-b:a", f.audioBitrate,
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("segment extraction failed: %w, stderr: %s", err, stderr.String())
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("segment output missing after extraction: %w", err)
	}

	return nil
}

func formatSeconds(ms int64) string {
	return fmt.Sprintf("%.3f", float64(ms)/1000.0)
}
