package app_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/takao11sep/vtt-improve-srt/internal/app"
	"github.com/takao11sep/vtt-improve-srt/internal/config"
	"github.com/takao11sep/vtt-improve-srt/internal/patterns"
	"github.com/takao11sep/vtt-improve-srt/internal/transcript"
)

const sampleVTT = `WEBVTT

00:00:01.000 --> 00:00:03.000
えー、これはテストです

00:00:03.500 --> 00:00:05.000
インプラントの話なんすね

00:00:05.500 --> 00:00:07.000
よろしくお願いします
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting.vtt")
	if err := os.WriteFile(path, []byte(sampleVTT), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Output.WorkDirRoot = t.TempDir()
	cfg.Pipeline.ChunkSize = 2
	cfg.Pipeline.Passes = 1
	cfg.Pipeline.ChunkDelay = 0
	return cfg
}

func TestRunOffline(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	store := &patterns.Store{}
	oracle := &transcript.RuleOracle{Rules: transcript.NewRules(store)}
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	a := app.New(cfg, store, oracle, app.WithClock(func() time.Time { return fixed }))
	res, err := a.Run(context.Background(), writeSample(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := filepath.Base(res.WorkDir), "work_20260314_092653"; got != want {
		t.Errorf("work dir = %q, want %q", got, want)
	}
	if res.Segments != 3 {
		t.Errorf("segments = %d, want 3", res.Segments)
	}

	// Input copy plus two chunk files for chunk size 2.
	for _, name := range []string{"meeting.vtt", "output_batch_1.srt", "output_batch_2.srt"} {
		if _, err := os.Stat(filepath.Join(res.WorkDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(res.FinalPath)
	if err != nil {
		t.Fatalf("reading final output: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, "これはテストです") {
		t.Errorf("filler not removed:\n%s", out)
	}
	if strings.Contains(out, "えー、") {
		t.Errorf("filler still present:\n%s", out)
	}
	if !strings.Contains(out, "なんですね") {
		t.Errorf("casual form not rewritten:\n%s", out)
	}
	if !strings.Contains(out, "00:00:03,500 --> 00:00:05,000") {
		t.Errorf("timestamps not in SRT form:\n%s", out)
	}
	// All three records survive the merge with global numbering.
	for _, idx := range []string{"1\n", "2\n", "3\n"} {
		if !strings.Contains(out, "\n\n"+idx) && !strings.HasPrefix(out, idx) {
			t.Errorf("record %q missing from final output:\n%s", strings.TrimSpace(idx), out)
		}
	}
}

func TestRunMergeMatchesChunks(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	store := &patterns.Store{}
	oracle := &transcript.RuleOracle{Rules: transcript.NewRules(store)}

	a := app.New(cfg, store, oracle)
	res, err := a.Run(context.Background(), writeSample(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var concat strings.Builder
	for _, name := range []string{"output_batch_1.srt", "output_batch_2.srt"} {
		data, err := os.ReadFile(filepath.Join(res.WorkDir, name))
		if err != nil {
			t.Fatal(err)
		}
		concat.Write(data)
	}
	final, err := os.ReadFile(res.FinalPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(final) != concat.String() {
		t.Errorf("final output is not the concatenation of chunk files")
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	store := &patterns.Store{}
	a := app.New(cfg, store, &transcript.RuleOracle{})

	t.Run("missing file", func(t *testing.T) {
		if _, err := a.Run(context.Background(), filepath.Join(t.TempDir(), "nope.vtt")); err == nil {
			t.Error("expected error for missing input")
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "meeting.srt")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := a.Run(context.Background(), path); err == nil {
			t.Error("expected error for non-vtt input")
		}
	})

	t.Run("directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "meeting.vtt")
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if _, err := a.Run(context.Background(), dir); err == nil {
			t.Error("expected error for directory input")
		}
	})
}
