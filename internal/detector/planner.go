package detector

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
)

// ErrInvalidPadding is returned when the configured padding is negative.
var ErrInvalidPadding = errors.New("invalid padding")

// Plan converts word matches into audio segment extraction requests. Each
// match range is widened by a symmetric padding and clamped to
// [0, mediaDurationMs]. Requests whose padded range collapses outside the
// media bounds are dropped, so every emitted request satisfies
// 0 <= start < stop <= mediaDuration. Requests with identical
// (word, start, stop) collapse to one, so the extractor is never asked to
// cut the same segment twice.
//
// Output paths are deterministic, derived from video id, word and start
// offset, which makes reprocessing idempotent at the file level too.
func Plan(matches []models.WordMatch, paddingMs, mediaDurationMs int64, segmentDir string) ([]models.SegmentRequest, error) {
	if paddingMs < 0 {
		return nil, fmt.Errorf("%w: %dms", ErrInvalidPadding, paddingMs)
	}

	seen := make(map[string]struct{}, len(matches))
	var requests []models.SegmentRequest

	for _, m := range matches {
		start := m.Start.Millis() - paddingMs
		if start < 0 {
			start = 0
		}
		stop := m.Stop.Millis() + paddingMs
		if mediaDurationMs > 0 && stop > mediaDurationMs {
			stop = mediaDurationMs
		}
		if stop <= start {
			// Caption lies entirely past the end of the media.
			continue
		}

		key := fmt.Sprintf("%s|%d|%d", m.Word, start, stop)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		requests = append(requests, models.SegmentRequest{
			VideoID:      m.VideoID,
			Word:         m.Word,
			StartMs:      start,
			StopMs:       stop,
			OutputPath:   segmentPath(segmentDir, m.VideoID, m.Word, start),
			CaptionIndex: m.CaptionIndex,
		})
	}

	return requests, nil
}

func segmentPath(dir, videoID, word string, startMs int64) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s-%08d.mp3", videoID, word, startMs))
}
