package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// speakerLabel matches a leading speaker-name token: a run of word-like
// characters (possibly several space-separated words) followed by a colon
// and optional whitespace. Matches names like "minamidate:" or "Dr Asano:".
var speakerLabel = regexp.MustCompile(`^\w+(?: \w+)*:\s*`)

// WriteOptions controls optional SRT post-processing. The zero value writes
// segments as-is.
type WriteOptions struct {
	// StripSpeakerNames removes a leading "Name:" token from every text
	// line before writing.
	StripSpeakerNames bool
}

// WriteSRT writes one SubRip block per segment, in original index order.
//
// Each block carries the 1-based sequence number, the timestamps rewritten
// into SRT notation, and the corrected text from corrections. A segment
// whose index is missing from the map falls back to its original text —
// the scheduler guarantees completeness, but the emitter does not rely on
// it. Every block is terminated by a blank line.
func WriteSRT(w io.Writer, segments []Segment, corrections map[int]string, opts WriteOptions) error {
	bw := bufio.NewWriter(w)
	for _, seg := range segments {
		text, ok := corrections[seg.Index]
		if !ok {
			text = seg.Text
		}
		if opts.StripSpeakerNames {
			text = StripSpeaker(text)
		}
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", seg.Index, seg.Start.SRT(), seg.End.SRT(), text)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("subtitle: write srt: %w", err)
	}
	return nil
}

// StripSpeaker removes a leading speaker-name label from each line of text.
// Lines without a label are returned unchanged.
func StripSpeaker(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = speakerLabel.ReplaceAllString(line, "")
	}
	return strings.Join(lines, "\n")
}
