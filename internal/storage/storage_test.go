package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentKey(t *testing.T) {
	key := SegmentKey("vid-1", "/tmp/segments/vid-1-damn-00000500.mp3")
	assert.Equal(t, "segments/vid-1/vid-1-damn-00000500.mp3", key)

	// Same inputs, same key: reprocessing overwrites instead of piling up.
	again := SegmentKey("vid-1", "/other/dir/vid-1-damn-00000500.mp3")
	assert.Equal(t, key, again)
}

func TestGetContentType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"clip.mp3", "audio/mpeg"},
		{"clip.wav", "audio/wav"},
		{"clip.aac", "audio/aac"},
		{"clip.flac", "audio/flac"},
		{"clip.bin", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, getContentType(tt.path), tt.path)
	}
}
