package detector

import (
	"strings"
	"unicode"

	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
)

// Match scans ordered captions against a target word set and returns one
// WordMatch per (caption, token) hit. Matching is case-insensitive and
// whole-word: tokens are split on non-letter boundaries, so a target "cut"
// never matches inside "scout". Each match carries the caption's full time
// range. Output order follows caption order, then token order within a
// caption, so reprocessing yields an identical sequence.
func Match(videoID string, captions []models.Caption, words []string) []models.WordMatch {
	targets := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			targets[w] = struct{}{}
		}
	}

	if len(targets) == 0 {
		return nil
	}

	var matches []models.WordMatch
	for _, caption := range captions {
		for _, token := range tokenize(caption.Text) {
			if _, ok := targets[token]; !ok {
				continue
			}
			matches = append(matches, models.WordMatch{
				VideoID:      videoID,
				Word:         token,
				Start:        caption.Start,
				Stop:         caption.Stop,
				CaptionIndex: caption.Index,
			})
		}
	}

	return matches
}

// tokenize splits caption text into lowercase tokens on non-letter
// boundaries.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
