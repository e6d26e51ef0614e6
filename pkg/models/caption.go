package models

import "github.com/therealutkarshpriyadarshi/worddetect/pkg/timecode"

// Caption is a single subtitle block: a 1-based sequence index matching
// source order, a display time range with Stop > Start, and the caption
// text. Captions are immutable once parsed.
type Caption struct {
	Index int               `json:"index"`
	Start timecode.TimeCode `json:"start"`
	Stop  timecode.TimeCode `json:"stop"`
	Text  string            `json:"text"`
}
