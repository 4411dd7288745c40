// Package subtitle provides the caption data model and the file-format
// boundary of the pipeline: parsing WebVTT transcript captures into ordered
// [Segment] values and emitting corrected segments as SubRip (SRT) blocks.
package subtitle

import "strings"

// Timestamp is a caption timestamp in WebVTT notation, HH:MM:SS.mmm.
// The digits are carried verbatim; no arithmetic is ever performed on them.
type Timestamp string

// SRT returns the timestamp in SubRip notation (HH:MM:SS,mmm). The only
// transformation is the decimal-second separator: period becomes comma.
func (t Timestamp) SRT() string {
	return strings.Replace(string(t), ".", ",", 1)
}

// Segment is one timestamped caption unit. Segments are immutable once
// parsed: corrections associate new text with the same Index, they never
// touch the timestamps.
//
// Index is the segment's identity. It is 1-based, dense, and unique within
// a transcript; every downstream merge keys on it exclusively.
type Segment struct {
	Index int
	Start Timestamp
	End   Timestamp
	Text  string
}
