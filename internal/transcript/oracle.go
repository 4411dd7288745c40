package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyBatch is returned by oracles when Correct is called with no
// entries. Callers are expected to never dispatch an empty batch.
var ErrEmptyBatch = errors.New("transcript: empty batch")

// Entry is the unit of text the scheduler dispatches: a segment index and
// the text of that segment as of the current pass. Pass 1 carries the
// original parsed text; later passes carry the previous pass's output.
type Entry struct {
	Index int
	Text  string
}

// Batch is one oracle work unit: the entries to correct plus read-only
// context. Context entries are prompt material only — they are never
// correction targets and never appear in the response merge.
type Batch struct {
	// Pass is the 1-based correction pass this batch belongs to.
	Pass int

	// Entries are the correction targets, in index order.
	Entries []Entry

	// ContextBefore and ContextAfter are the bounded windows of
	// surrounding entries, clipped at the sequence boundaries.
	ContextBefore []Entry
	ContextAfter  []Entry
}

// Oracle is the replaceable text-correction boundary. An implementation
// returns a textual response carrying corrected text per entry in the
// tagged-line form "[index] text", or an error when it cannot produce a
// response at all. The oracle performs no response parsing and no fallback;
// both belong to [ParseTagged].
//
// This is the only pipeline component permitted to perform remote I/O.
type Oracle interface {
	Correct(ctx context.Context, batch Batch) (string, error)
}

// RuleOracle is the self-contained oracle backend: it answers every batch
// with the rule-corrected text of each entry, formatted as tagged lines.
// It needs no network and never fails, which makes it both the offline mode
// and a convenient deterministic stand-in.
type RuleOracle struct {
	Rules *Rules
}

// Correct implements [Oracle].
func (o *RuleOracle) Correct(_ context.Context, batch Batch) (string, error) {
	if len(batch.Entries) == 0 {
		return "", ErrEmptyBatch
	}
	var sb strings.Builder
	for _, e := range batch.Entries {
		text := e.Text
		if o.Rules != nil {
			text = o.Rules.Apply(text)
		}
		// Keep multi-line entries on one tagged line.
		text = strings.ReplaceAll(text, "\n", " ")
		fmt.Fprintf(&sb, "[%d] %s\n", e.Index, text)
	}
	return sb.String(), nil
}
