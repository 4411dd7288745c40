// Package termscan audits corrected subtitle text for likely
// mis-transcriptions of the canonical dental vocabulary.
//
// For each canonical term the scanner slides a rune window of the term's
// length across the segment text and ranks the windows by Jaro-Winkler
// similarity. Windows that score above the threshold without being an exact
// occurrence are reported as hits. The scan is purely advisory: it produces
// a report for the operator (new candidates for the pattern artifact) and
// never modifies text.
package termscan

import (
	"sort"

	"github.com/antzucaro/matchr"
)

const defaultThreshold = 0.85

// Hit reports one likely mis-transcription: a text window in a segment that
// is close to, but not exactly, a canonical term.
type Hit struct {
	// Index is the segment the window was found in.
	Index int

	// Found is the text window as it appears in the segment.
	Found string

	// Term is the canonical vocabulary term the window resembles.
	Term string

	// Score is the Jaro-Winkler similarity in (threshold, 1).
	Score float64
}

// Option is a functional option for configuring a [Scanner].
type Option func(*Scanner)

// WithThreshold sets the minimum Jaro-Winkler score for a window to be
// reported. Default: 0.85.
func WithThreshold(threshold float64) Option {
	return func(s *Scanner) {
		s.threshold = threshold
	}
}

// Scanner is a read-only fuzzy matcher over a fixed term list. Safe for
// concurrent use after construction.
type Scanner struct {
	terms     []string
	threshold float64
}

// New returns a [Scanner] over terms. Terms shorter than two runes are
// ignored — single-character windows match far too freely.
func New(terms []string, opts ...Option) *Scanner {
	s := &Scanner{threshold: defaultThreshold}
	for _, t := range terms {
		if len([]rune(t)) >= 2 {
			s.terms = append(s.terms, t)
		}
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan inspects one segment's text and returns at most one hit per term:
// the best-scoring non-exact window. Segments that contain the term exactly
// are skipped for that term, since adjacent windows of an exact occurrence
// would otherwise score spuriously high.
func (s *Scanner) Scan(index int, text string) []Hit {
	runes := []rune(text)
	var hits []Hit

	for _, term := range s.terms {
		termRunes := []rune(term)
		w := len(termRunes)
		if w > len(runes) {
			continue
		}
		if containsRunes(runes, termRunes) {
			continue
		}

		best := Hit{Index: index, Term: term}
		for i := 0; i+w <= len(runes); i++ {
			window := string(runes[i : i+w])
			score := matchr.JaroWinkler(window, term, false)
			if score >= s.threshold && score > best.Score {
				best.Found = window
				best.Score = score
			}
		}
		if best.Found != "" {
			hits = append(hits, best)
		}
	}
	return hits
}

// ScanAll runs [Scanner.Scan] over a full correction map and returns the
// hits ordered by segment index.
func (s *Scanner) ScanAll(corrections map[int]string) []Hit {
	indices := make([]int, 0, len(corrections))
	for idx := range corrections {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var hits []Hit
	for _, idx := range indices {
		hits = append(hits, s.Scan(idx, corrections[idx])...)
	}
	return hits
}

// containsRunes reports whether needle occurs as a contiguous run in haystack.
func containsRunes(haystack, needle []rune) bool {
	if len(needle) == 0 {
		return true
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return true
	}
	return false
}
