// Package transcript implements the correction pipeline core: the
// deterministic rule-based corrector, the batch scheduler that drives an
// [Oracle] over chunked segment sequences, and the tolerant tagged-line
// response parser with its fallback guarantee.
package transcript

import (
	"strings"

	"github.com/takao11sep/vtt-improve-srt/internal/patterns"
)

// builtinFillers are removed from every segment when the pattern store does
// not supply its own filler list.
var builtinFillers = []string{
	"えー、", "えー",
	"あのー、", "あのー",
	"えっと、", "えっと",
	"その、",
	"まあ、", "まあ",
}

// builtinSubstitutions normalise colloquial speech and the recurring
// kana-form dental terms. Applied after any store-supplied patterns, in
// this order.
var builtinSubstitutions = []patterns.Pattern{
	{Wrong: "なんすね", Correct: "なんですね"},
	{Wrong: "なんすか", Correct: "なんですか"},
	{Wrong: "っすね", Correct: "ですね"},
	{Wrong: "っすよ", Correct: "ですよ"},
	{Wrong: "っす", Correct: "です"},
	{Wrong: "ほてつ", Correct: "補綴"},
	{Wrong: "ホテツ", Correct: "補綴"},
	{Wrong: "わいしょうし", Correct: "矮小歯"},
	{Wrong: "きょうごうめん", Correct: "咬合面"},
	{Wrong: "こうくうがい", Correct: "口腔外"},
}

// Rules is the deterministic text-substitution pass: filler removal followed
// by fixed substitutions. [Rules.Apply] never fails, which makes it the
// baseline the pipeline can always fall back on, with or without an oracle
// round.
//
// Application order is documented and fixed: fillers in store order (or the
// built-in list when the store has none), then store substitutions in
// declaration order, then the built-in substitution table. A later pattern
// may re-touch text produced by an earlier one; the order never varies
// between runs.
type Rules struct {
	fillers       []string
	substitutions []patterns.Pattern
}

// NewRules builds the rule set for one run from the pattern store. store may
// be nil or empty; the built-in tables still apply.
func NewRules(store *patterns.Store) *Rules {
	r := &Rules{}

	if store != nil && len(store.FillerWords) > 0 {
		r.fillers = store.FillerWords
	} else {
		r.fillers = builtinFillers
	}

	if store != nil {
		r.substitutions = append(r.substitutions, store.SimplePatterns...)
	}
	r.substitutions = append(r.substitutions, builtinSubstitutions...)

	return r
}

// Apply corrects text by deleting fillers and applying the substitution
// tables, then trims surrounding whitespace. Deterministic and total.
func (r *Rules) Apply(text string) string {
	for _, f := range r.fillers {
		text = strings.ReplaceAll(text, f, "")
	}
	for _, p := range r.substitutions {
		text = strings.ReplaceAll(text, p.Wrong, p.Correct)
	}
	return strings.TrimSpace(text)
}
