package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/config"
)

// Validation failures surfaced to the API layer
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file exceeds size limit")
)

// Service saves uploaded media and subtitle files to local disk. Saved
// filenames are prefixed with a fresh UUID so concurrent uploads of
// identically named files never collide.
type Service struct {
	cfg config.UploadConfig
}

// NewService creates an upload service and ensures the target directories
// exist.
func NewService(cfg config.UploadConfig) (*Service, error) {
	for _, dir := range []string{cfg.VideoDir, cfg.SrtDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
		}
	}
	return &Service{cfg: cfg}, nil
}

// SaveVideo validates and stores an uploaded video file, returning the
// stored path.
func (s *Service) SaveVideo(filename string, size int64, data io.Reader) (string, error) {
	if err := s.validate(filename, size, s.cfg.VideoExtensions); err != nil {
		return "", err
	}
	return save(s.cfg.VideoDir, filename, s.cfg.MaxSizeBytes, data)
}

// SaveSubtitle validates and stores an uploaded subtitle file, returning
// the stored path.
func (s *Service) SaveSubtitle(filename string, size int64, data io.Reader) (string, error) {
	if err := s.validate(filename, size, s.cfg.SrtExtensions); err != nil {
		return "", err
	}
	return save(s.cfg.SrtDir, filename, s.cfg.MaxSizeBytes, data)
}

func (s *Service) validate(filename string, size int64, allowed []string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	ok := false
	for _, a := range allowed {
		if ext == a {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}

	if size > s.cfg.MaxSizeBytes {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}

	return nil
}

func save(dir, filename string, maxSize int64, data io.Reader) (string, error) {
	// Base() strips any path components a hostile client sent along.
	name := fmt.Sprintf("%s-%s", uuid.New().String(), filepath.Base(filename))
	dst := filepath.Join(dir, name)

	file, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// Declared size is client-supplied; enforce the cap on actual bytes too.
	written, err := io.Copy(file, io.LimitReader(data, maxSize+1))
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if written > maxSize {
		os.Remove(dst)
		return "", fmt.Errorf("%w: body larger than declared", ErrTooLarge)
	}

	return dst, nil
}
