package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/therealutkarshpriyadarshi/worddetect/internal/config"
)

// Storage provides object storage operations for extracted audio segments
type Storage struct {
	client     *minio.Client
	bucketName string
}

// New creates a new storage client
func New(cfg config.StorageConfig) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	// Ensure bucket exists
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{
		client:     client,
		bucketName: cfg.BucketName,
	}, nil
}

// SegmentKey builds the object key for one extracted segment
func SegmentKey(videoID, localPath string) string {
	return path.Join("segments", videoID, filepath.Base(localPath))
}

// UploadSegment pushes an extracted audio segment and returns its object
// key. The key is derived from the deterministic segment filename, so
// reprocessing overwrites rather than duplicates.
func (s *Storage) UploadSegment(ctx context.Context, videoID, localPath string) (string, error) {
	key := SegmentKey(videoID, localPath)

	_, err := s.client.FPutObject(ctx, s.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: getContentType(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload segment: %w", err)
	}

	return key, nil
}

// Delete deletes an object from storage
func (s *Storage) Delete(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// GetURL returns a presigned URL for an object
func (s *Storage) GetURL(ctx context.Context, objectName string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucketName, objectName, time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate URL: %w", err)
	}

	return url.String(), nil
}

// ListSegments lists the stored segment keys for one video
func (s *Storage) ListSegments(ctx context.Context, videoID string) ([]string, error) {
	var objects []string

	prefix := path.Join("segments", videoID) + "/"
	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		objects = append(objects, object.Key)
	}

	return objects, nil
}

// DeleteSegments removes every stored segment of a video, used before a
// reprocessing run with a changed word set.
func (s *Storage) DeleteSegments(ctx context.Context, videoID string) error {
	keys, err := s.ListSegments(ctx, videoID)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// getContentType returns the content type based on file extension
func getContentType(filePath string) string {
	switch filepath.Ext(filePath) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".aac":
		return "audio/aac"
	case ".flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
