package llmcorrect_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/takao11sep/vtt-improve-srt/internal/patterns"
	"github.com/takao11sep/vtt-improve-srt/internal/transcript"
	"github.com/takao11sep/vtt-improve-srt/internal/transcript/llmcorrect"
	llm "github.com/takao11sep/vtt-improve-srt/pkg/provider/llm"
	"github.com/takao11sep/vtt-improve-srt/pkg/provider/llm/mock"
)

func testStore() *patterns.Store {
	return &patterns.Store{
		SimplePatterns: []patterns.Pattern{
			{Wrong: "司会者", Correct: "歯科医師"},
			{Wrong: "開墾", Correct: "開咬"},
		},
		FillerWords: []string{"えー、", "あのー、"},
		DentalTerms: []string{"矯正", "補綴", "咬合", "開咬"},
	}
}

func testBatch() transcript.Batch {
	return transcript.Batch{
		Pass: 1,
		Entries: []transcript.Entry{
			{Index: 3, Text: "司会者の先生に聞きました"},
			{Index: 4, Text: "開墾の症例です"},
		},
		ContextBefore: []transcript.Entry{{Index: 2, Text: "前の発言"}},
		ContextAfter:  []transcript.Entry{{Index: 5, Text: "次の発言"}},
	}
}

func TestCorrectReturnsRawResponse(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "[3] 歯科医師の先生に聞きました\n[4] 開咬の症例です"},
	}
	c := llmcorrect.New(p, testStore())

	got, err := c.Correct(context.Background(), testBatch())
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if !strings.Contains(got, "[3] 歯科医師の先生に聞きました") {
		t.Errorf("response passed through incorrectly: %q", got)
	}
}

func TestCorrectPass1Prompt(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "[3] x\n[4] y"},
	}
	c := llmcorrect.New(p, testStore())

	if _, err := c.Correct(context.Background(), testBatch()); err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if len(p.CompleteCalls) != 1 {
		t.Fatalf("calls = %d, want 1", len(p.CompleteCalls))
	}

	req := p.CompleteCalls[0].Req
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	prompt := req.Messages[0].Content

	for _, want := range []string{
		"「司会者」→「歯科医師」",    // pattern table
		"矯正、補綴、咬合、開咬",     // vocabulary excerpt
		"えー、、あのー、",         // filler list
		"【変換例】",             // few-shot examples
		"【直前の文脈】\n[2] 前の発言", // context windows
		"【直後の文脈】\n[5] 次の発言",
		"[3] 司会者の先生に聞きました", // the batch itself
		"[4] 開墾の症例です",
		"[番号] 校正後テキスト", // output contract
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("pass 1 prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "チェック項目") {
		t.Error("pass 1 prompt contains pass 2 material")
	}
}

func TestCorrectPass2Prompt(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "[3] x"},
	}
	c := llmcorrect.New(p, testStore())

	batch := testBatch()
	batch.Pass = 2
	if _, err := c.Correct(context.Background(), batch); err != nil {
		t.Fatalf("Correct: %v", err)
	}

	prompt := p.CompleteCalls[0].Req.Messages[0].Content
	for _, want := range []string{
		"1回目の校正済み字幕",
		"- 開咬",
		"【チェック項目】",
		"[番号] 最終校正テキスト",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("pass 2 prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "【変換例】") {
		t.Error("pass 2 prompt carries the few-shot block")
	}
}

func TestCorrectRequestParameters(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "[3] x"},
	}
	c := llmcorrect.New(p, testStore(),
		llmcorrect.WithTemperature(0.5),
		llmcorrect.WithMaxTokens(1234),
	)

	if _, err := c.Correct(context.Background(), testBatch()); err != nil {
		t.Fatalf("Correct: %v", err)
	}
	req := p.CompleteCalls[0].Req
	if req.Temperature != 0.5 {
		t.Errorf("temperature = %v, want 0.5", req.Temperature)
	}
	if req.MaxTokens != 1234 {
		t.Errorf("max tokens = %d, want 1234", req.MaxTokens)
	}
}

func TestCorrectMultilineEntryFlattened(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "[1] x"},
	}
	c := llmcorrect.New(p, nil)

	batch := transcript.Batch{
		Pass:    1,
		Entries: []transcript.Entry{{Index: 1, Text: "一行目\n二行目"}},
	}
	if _, err := c.Correct(context.Background(), batch); err != nil {
		t.Fatalf("Correct: %v", err)
	}
	prompt := p.CompleteCalls[0].Req.Messages[0].Content
	if !strings.Contains(prompt, "[1] 一行目 二行目") {
		t.Error("multi-line entry not flattened to one tagged line")
	}
}

func TestCorrectErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()
		c := llmcorrect.New(&mock.Provider{}, nil)
		if _, err := c.Correct(context.Background(), transcript.Batch{Pass: 1}); !errors.Is(err, transcript.ErrEmptyBatch) {
			t.Errorf("err = %v, want ErrEmptyBatch", err)
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()
		c := llmcorrect.New(&mock.Provider{CompleteErr: errors.New("boom")}, nil)
		if _, err := c.Correct(context.Background(), testBatch()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty response", func(t *testing.T) {
		t.Parallel()
		c := llmcorrect.New(&mock.Provider{
			CompleteResponse: &llm.CompletionResponse{Content: "   \n"},
		}, nil)
		if _, err := c.Correct(context.Background(), testBatch()); err == nil {
			t.Error("expected error for blank response")
		}
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		c := llmcorrect.New(&mock.Provider{}, nil)
		if _, err := c.Correct(context.Background(), testBatch()); err == nil {
			t.Error("expected error for nil response")
		}
	})
}
