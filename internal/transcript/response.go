package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

// taggedLine is the response grammar: a bracketed integer index, optional
// whitespace, then the rest of the line as corrected text.
var taggedLine = regexp.MustCompile(`^\[(\d+)\]\s*(.*)$`)

// ParseTagged extracts corrected text per entry index from an oracle
// response.
//
// Each response line is matched against the tagged-line grammar after
// trimming. Lines that do not match, lines whose extracted text trims to
// empty, and indices that do not occur in entries contribute nothing. Every
// index of entries that the scan did not recover receives that entry's text
// unchanged — the fallback guarantee: the result always covers exactly the
// indices of entries, regardless of how malformed the response is. A fully
// unrecognisable response yields the identity mapping.
//
// The second return value is the number of entries that fell back, for
// accounting; it carries no error semantics.
func ParseTagged(response string, entries []Entry) (map[int]string, int) {
	inBatch := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		inBatch[e.Index] = struct{}{}
	}

	result := make(map[int]string, len(entries))
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		m := taggedLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, ok := inBatch[idx]; !ok {
			continue
		}
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		result[idx] = text
	}

	fallbacks := 0
	for _, e := range entries {
		if _, ok := result[e.Index]; !ok {
			result[e.Index] = e.Text
			fallbacks++
		}
	}
	return result, fallbacks
}
