package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// cueLine matches a WebVTT cue timing line. Trailing cue settings after the
// end timestamp are allowed and ignored. The timestamp format is fixed:
// 2/2/2/3 digit groups, colon and period separated.
var cueLine = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}\.\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}\.\d{3})`)

// ParseVTT reads a WebVTT transcript capture from r and returns its caption
// blocks as ordered [Segment] values.
//
// A block is a cue timing line followed by one or more text lines, ended by
// a blank line or the next cue timing line. Blocks whose text is empty after
// trimming are dropped; indices are assigned 1-based and contiguous over the
// retained blocks only. Lines that do not match the cue format (headers,
// NOTE blocks, cue identifiers, malformed timings) are skipped without
// error. Input with no cues at all yields an empty slice and a nil error.
func ParseVTT(r io.Reader) ([]Segment, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var segments []Segment
	var start, end Timestamp
	var text []string
	inCue := false

	flush := func() {
		if !inCue {
			return
		}
		joined := strings.TrimSpace(strings.Join(text, "\n"))
		if joined != "" {
			segments = append(segments, Segment{
				Index: len(segments) + 1,
				Start: start,
				End:   end,
				Text:  joined,
			})
		}
		text = text[:0]
		inCue = false
	}

	for sc.Scan() {
		line := sc.Text()
		if m := cueLine.FindStringSubmatch(line); m != nil {
			flush()
			start, end = Timestamp(m[1]), Timestamp(m[2])
			inCue = true
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if inCue {
			text = append(text, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("subtitle: read vtt: %w", err)
	}
	flush()

	return segments, nil
}
