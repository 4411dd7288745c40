// Package llmcorrect implements the language-model-backed correction oracle.
//
// The [Corrector] sends each batch of transcript segments to an
// [llm.Provider] as numbered "[n] text" lines, together with the known
// mis-transcription patterns, the dental vocabulary, filler list, few-shot
// examples, and the surrounding context window. The model is instructed to
// answer in the same tagged-line form; the raw response text is returned
// as-is — parsing and per-segment fallback are the scheduler's concern.
//
// Pass 1 performs the full correction; pass 2 is a narrower terminology
// re-check over pass-1 output.
package llmcorrect

import (
	"context"
	"fmt"
	"strings"

	"github.com/takao11sep/vtt-improve-srt/internal/patterns"
	"github.com/takao11sep/vtt-improve-srt/internal/transcript"
	llm "github.com/takao11sep/vtt-improve-srt/pkg/provider/llm"
)

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 8000

	// maxPromptTerms caps the vocabulary excerpt in the pass-1 prompt;
	// pass 2 receives the full list.
	maxPromptTerms = 20
)

// fewShotExamples anchors the expected transformation with real
// mis-transcriptions from this meeting corpus.
const fewShotExamples = `【変換例】
入力: [1] 司会者マッチング店員についてですね
出力: [1] 歯科医師マッチング転院についてですね

入力: [2] えーと、強制治療の補填期間についてなんすけど
出力: [2] 矯正治療の保定期間についてなんですけど

入力: [3] minamidate: 開墾の症例が多いですね
出力: [3] minamidate: 開咬の症例が多いですね

入力: [4] 口頭干渉があるので効果調整が必要です
出力: [4] 咬頭干渉があるので咬合調整が必要です`

// Option is a functional option for configuring a [Corrector].
type Option func(*Corrector)

// WithTemperature sets the sampling temperature. Lower values produce more
// deterministic corrections. Default: 0.2.
func WithTemperature(temp float64) Option {
	return func(c *Corrector) {
		c.temperature = temp
	}
}

// WithMaxTokens caps the completion length. Default: 8000.
func WithMaxTokens(n int) Option {
	return func(c *Corrector) {
		c.maxTokens = n
	}
}

// Corrector is the LLM-backed [transcript.Oracle]. It is safe for concurrent
// use; the scheduler nevertheless dispatches strictly sequentially.
type Corrector struct {
	llm         llm.Provider
	store       *patterns.Store
	temperature float64
	maxTokens   int
}

var _ transcript.Oracle = (*Corrector)(nil)

// New returns a [Corrector] backed by the given provider. store supplies the
// prompt material and may be empty (the prompt then carries only the general
// rules and few-shot examples).
func New(provider llm.Provider, store *patterns.Store, opts ...Option) *Corrector {
	if store == nil {
		store = &patterns.Store{}
	}
	c := &Corrector{
		llm:         provider,
		store:       store,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct implements [transcript.Oracle]. It returns the raw model response;
// any transport error, and an empty response, are surfaced as errors so the
// scheduler can fall back for the whole chunk.
func (c *Corrector) Correct(ctx context.Context, batch transcript.Batch) (string, error) {
	if len(batch.Entries) == 0 {
		return "", transcript.ErrEmptyBatch
	}

	var prompt string
	if batch.Pass <= 1 {
		prompt = c.buildPass1Prompt(batch)
	} else {
		prompt = c.buildPass2Prompt(batch)
	}

	resp, err := c.llm.Complete(ctx, llm.CompletionRequest{
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llmcorrect: complete: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("llmcorrect: empty response")
	}
	return resp.Content, nil
}

// buildPass1Prompt assembles the full correction prompt: pattern table,
// vocabulary excerpt, filler list, few-shot examples, and context windows.
func (c *Corrector) buildPass1Prompt(batch transcript.Batch) string {
	var sb strings.Builder

	sb.WriteString("あなたは歯科医療・矯正歯科の専門家です。以下は歯科医師による会議の音声認識字幕です。\n")

	if len(c.store.SimplePatterns) > 0 {
		sb.WriteString("\n【最重要：音声認識の誤変換を必ず修正してください】\n")
		for _, p := range c.store.SimplePatterns {
			fmt.Fprintf(&sb, "- 「%s」→「%s」\n", p.Wrong, p.Correct)
		}
	}

	if len(c.store.DentalTerms) > 0 {
		terms := c.store.DentalTerms
		if len(terms) > maxPromptTerms {
			terms = terms[:maxPromptTerms]
		}
		sb.WriteString("\n【歯科専門用語（正しい表記）】\n")
		sb.WriteString(strings.Join(terms, "、"))
		sb.WriteString("\n")
	}

	if len(c.store.FillerWords) > 0 {
		sb.WriteString("\n【削除するフィラー】\n")
		sb.WriteString(strings.Join(c.store.FillerWords, "、"))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(fewShotExamples)
	sb.WriteString("\n")

	if len(batch.ContextBefore) > 0 {
		sb.WriteString("\n【直前の文脈】\n")
		writeEntries(&sb, batch.ContextBefore)
	}
	if len(batch.ContextAfter) > 0 {
		sb.WriteString("\n【直後の文脈】\n")
		writeEntries(&sb, batch.ContextAfter)
	}

	sb.WriteString(`
【校正ルール】
1. 上記の誤変換パターンを必ず修正
2. フィラーを除去
3. 口語を自然な日本語に（「なんすか」→「なんですか」）
4. 発話者名（例: minamidate:）は絶対に削除しない
5. 文脈から意味を推測して適切な専門用語に変換

【出力形式】
[番号] 校正後テキスト
※番号は入力と同じ。余計な説明は不要。

【入力データ】
`)
	writeEntries(&sb, batch.Entries)
	sb.WriteString("\n【出力】")

	return sb.String()
}

// buildPass2Prompt assembles the terminology re-check prompt used for the
// second pass over already-corrected text.
func (c *Corrector) buildPass2Prompt(batch transcript.Batch) string {
	var sb strings.Builder

	sb.WriteString("以下は1回目の校正済み字幕です。歯科専門用語が正しく使われているか最終チェックしてください。\n")

	if len(c.store.DentalTerms) > 0 {
		sb.WriteString("\n【正しい歯科専門用語リスト】\n")
		for _, t := range c.store.DentalTerms {
			fmt.Fprintf(&sb, "- %s\n", t)
		}
	}

	sb.WriteString(`
【チェック項目】
1. 専門用語のスペルミスや誤変換がないか
2. 文脈上おかしな単語がないか
3. 同音異義語が正しく使われているか

【出力形式】
[番号] 最終校正テキスト
※修正不要なら入力をそのまま出力。余計な説明は不要。

【入力データ】
`)
	writeEntries(&sb, batch.Entries)
	sb.WriteString("\n【出力】")

	return sb.String()
}

// writeEntries appends entries as tagged "[n] text" lines, one per entry.
func writeEntries(sb *strings.Builder, entries []transcript.Entry) {
	for _, e := range entries {
		text := strings.ReplaceAll(e.Text, "\n", " ")
		fmt.Fprintf(sb, "[%d] %s\n", e.Index, text)
	}
}
