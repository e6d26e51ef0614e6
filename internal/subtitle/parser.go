package subtitle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/worddetect/pkg/models"
	"github.com/therealutkarshpriyadarshi/worddetect/pkg/timecode"
)

// Parse errors. Both wrap enough position information to point at the
// offending block.
var (
	ErrInvalidBlockIndex = errors.New("invalid block index")
	ErrInvalidTimeRange  = errors.New("invalid time range")
)

const timeRangeSeparator = " --> "

// Parse decomposes an SRT document into ordered caption blocks.
//
// Blocks are delimited by blank lines. Each block is: a numeric index line,
// a "start --> stop" time range line, then zero or more text lines (an empty
// caption is recorded as an empty string, not an error). Blocks are returned
// in source order; out-of-order timestamps between blocks are left to the
// caller to validate.
//
// Parsing is fail-fast: the first malformed block aborts the whole document
// so that reprocessing a subtitle always sees the same caption set.
func Parse(doc string) ([]models.Caption, error) {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	// Strip a UTF-8 BOM if the file carries one.
	doc = strings.TrimPrefix(doc, "\uFEFF")

	var captions []models.Caption

	for blockNo, block := range splitBlocks(doc) {
		caption, err := parseBlock(block)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", blockNo+1, err)
		}
		captions = append(captions, caption)
	}

	return captions, nil
}

// splitBlocks splits the document on blank-line boundaries, dropping empty
// runs so that consecutive blank lines do not produce empty blocks.
func splitBlocks(doc string) [][]string {
	var blocks [][]string
	var current []string

	for _, line := range strings.Split(doc, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}

	return blocks
}

func parseBlock(lines []string) (models.Caption, error) {
	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return models.Caption{}, fmt.Errorf("%w: %q", ErrInvalidBlockIndex, lines[0])
	}

	if len(lines) < 2 {
		return models.Caption{}, fmt.Errorf("%w: missing time range line", ErrInvalidTimeRange)
	}

	start, stop, err := parseTimeRange(lines[1])
	if err != nil {
		return models.Caption{}, err
	}

	text := ""
	if len(lines) > 2 {
		text = strings.Join(lines[2:], "\n")
	}

	return models.Caption{
		Index: index,
		Start: start,
		Stop:  stop,
		Text:  text,
	}, nil
}

func parseTimeRange(line string) (timecode.TimeCode, timecode.TimeCode, error) {
	parts := strings.Split(strings.TrimSpace(line), timeRangeSeparator)
	if len(parts) != 2 {
		return timecode.TimeCode{}, timecode.TimeCode{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, line)
	}

	start, err := timecode.Parse(strings.TrimSpace(parts[0]))
	if err != nil {
		return timecode.TimeCode{}, timecode.TimeCode{}, fmt.Errorf("%w: start: %v", ErrInvalidTimeRange, err)
	}

	stop, err := timecode.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		return timecode.TimeCode{}, timecode.TimeCode{}, fmt.Errorf("%w: stop: %v", ErrInvalidTimeRange, err)
	}

	if stop.Compare(start) <= 0 {
		return timecode.TimeCode{}, timecode.TimeCode{}, fmt.Errorf("%w: stop %s not after start %s", ErrInvalidTimeRange, stop, start)
	}

	return start, stop, nil
}
