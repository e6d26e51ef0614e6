package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/worddetect/internal/config"
)

func newTestService(t *testing.T, maxSize int64) *Service {
	t.Helper()
	base := t.TempDir()
	svc, err := NewService(config.UploadConfig{
		VideoDir:        filepath.Join(base, "videos"),
		SrtDir:          filepath.Join(base, "subtitles"),
		MaxSizeBytes:    maxSize,
		VideoExtensions: []string{".mp4", ".mkv"},
		SrtExtensions:   []string{".srt"},
	})
	require.NoError(t, err)
	return svc
}

func TestSaveVideo(t *testing.T) {
	svc := newTestService(t, 1024)

	body := "fake video bytes"
	path, err := svc.SaveVideo("movie.mp4", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, string(saved))
	assert.True(t, strings.HasSuffix(path, "-movie.mp4"))
}

func TestSaveVideoRejectsUnsupportedExtension(t *testing.T) {
	svc := newTestService(t, 1024)

	_, err := svc.SaveVideo("malware.exe", 10, strings.NewReader("xxxxxxxxxx"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveVideoRejectsOversizedDeclaration(t *testing.T) {
	svc := newTestService(t, 16)

	_, err := svc.SaveVideo("movie.mp4", 17, strings.NewReader("irrelevant"))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSaveVideoRejectsOversizedBody(t *testing.T) {
	svc := newTestService(t, 16)

	// Declared size fits, actual body does not.
	body := strings.Repeat("x", 32)
	_, err := svc.SaveVideo("movie.mp4", 10, strings.NewReader(body))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSaveSubtitle(t *testing.T) {
	svc := newTestService(t, 1024)

	path, err := svc.SaveSubtitle("movie.srt", 5, strings.NewReader("1\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "-movie.srt"))
}

func TestSaveStripsClientPath(t *testing.T) {
	svc := newTestService(t, 1024)

	path, err := svc.SaveSubtitle("../../etc/evil.srt", 5, strings.NewReader("1\n"))
	require.NoError(t, err)
	assert.NotContains(t, path, "..")
	assert.True(t, strings.HasSuffix(path, "-evil.srt"))
}

func TestUniqueFilenames(t *testing.T) {
	svc := newTestService(t, 1024)

	p1, err := svc.SaveSubtitle("movie.srt", 2, strings.NewReader("1\n"))
	require.NoError(t, err)
	p2, err := svc.SaveSubtitle("movie.srt", 2, strings.NewReader("1\n"))
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}
