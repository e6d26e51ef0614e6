package timecode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a time code string cannot be parsed.
var ErrMalformed = errors.New("malformed time code")

// TimeCode is a subtitle timestamp with millisecond precision.
type TimeCode struct {
	Hours        int
	Minutes      int
	Seconds      int
	Milliseconds int
}

// Parse parses a time code in the form HH:MM:SS,mmm or HH:MM:SS.mmm.
// SRT files use a comma before the milliseconds; the period form is the
// canonical one used everywhere downstream.
func Parse(s string) (TimeCode, error) {
	normalized := strings.Replace(s, ",", ".", 1)

	dotIdx := strings.LastIndex(normalized, ".")
	if dotIdx < 0 {
		return TimeCode{}, fmt.Errorf("%w: missing millisecond delimiter in %q", ErrMalformed, s)
	}

	clock := normalized[:dotIdx]
	msPart := normalized[dotIdx+1:]

	fields := strings.Split(clock, ":")
	if len(fields) != 3 {
		return TimeCode{}, fmt.Errorf("%w: expected HH:MM:SS, got %q", ErrMalformed, s)
	}

	hours, err := parseField(fields[0])
	if err != nil {
		return TimeCode{}, fmt.Errorf("%w: hours in %q", ErrMalformed, s)
	}
	minutes, err := parseField(fields[1])
	if err != nil || minutes > 59 {
		return TimeCode{}, fmt.Errorf("%w: minutes in %q", ErrMalformed, s)
	}
	seconds, err := parseField(fields[2])
	if err != nil || seconds > 59 {
		return TimeCode{}, fmt.Errorf("%w: seconds in %q", ErrMalformed, s)
	}
	// The millisecond field is positional: "5" means 5ms, not 500ms, so
	// anything other than exactly three digits is ambiguous and rejected.
	if len(msPart) != 3 {
		return TimeCode{}, fmt.Errorf("%w: milliseconds in %q", ErrMalformed, s)
	}
	millis, err := parseField(msPart)
	if err != nil {
		return TimeCode{}, fmt.Errorf("%w: milliseconds in %q", ErrMalformed, s)
	}

	return TimeCode{Hours: hours, Minutes: minutes, Seconds: seconds, Milliseconds: millis}, nil
}

func parseField(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty field")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid field %q", s)
	}
	return n, nil
}

// FromMillis builds a TimeCode from a millisecond offset. Negative offsets
// clamp to zero.
func FromMillis(ms int64) TimeCode {
	if ms < 0 {
		ms = 0
	}
	return TimeCode{
		Hours:        int(ms / 3600000),
		Minutes:      int(ms % 3600000 / 60000),
		Seconds:      int(ms % 60000 / 1000),
		Milliseconds: int(ms % 1000),
	}
}

// String renders the canonical period-delimited form HH:MM:SS.mmm.
func (t TimeCode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hours, t.Minutes, t.Seconds, t.Milliseconds)
}

// Millis returns the offset from the start of the media in milliseconds.
func (t TimeCode) Millis() int64 {
	return int64(t.Hours)*3600000 + int64(t.Minutes)*60000 + int64(t.Seconds)*1000 + int64(t.Milliseconds)
}

// SecondsF returns the offset as fractional seconds, the unit ffmpeg expects.
func (t TimeCode) SecondsF() float64 {
	return float64(t.Millis()) / 1000.0
}

// Compare orders two time codes: -1 if t < other, 0 if equal, 1 if t > other.
func (t TimeCode) Compare(other TimeCode) int {
	a, b := t.Millis(), other.Millis()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether t is strictly earlier than other.
func (t TimeCode) Before(other TimeCode) bool {
	return t.Compare(other) < 0
}
