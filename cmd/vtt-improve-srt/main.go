// Command vtt-improve-srt corrects a Japanese meeting-transcript VTT file
// and writes a cleaned SRT, using a language model for domain-terminology
// repair with a deterministic rule fallback.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/takao11sep/vtt-improve-srt/internal/app"
	"github.com/takao11sep/vtt-improve-srt/internal/config"
	"github.com/takao11sep/vtt-improve-srt/internal/patterns"
	"github.com/takao11sep/vtt-improve-srt/internal/resilience"
	"github.com/takao11sep/vtt-improve-srt/internal/transcript"
	"github.com/takao11sep/vtt-improve-srt/internal/transcript/llmcorrect"
	"github.com/takao11sep/vtt-improve-srt/pkg/provider/llm"
	"github.com/takao11sep/vtt-improve-srt/pkg/provider/llm/anyllm"
	"github.com/takao11sep/vtt-improve-srt/pkg/provider/llm/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	offline := flag.Bool("offline", false, "skip the language model and apply rule corrections only")
	removeSpeaker := flag.Bool("remove-speaker", false, "strip leading speaker labels from the output")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] input.vtt\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}
	inputPath := flag.Arg(0)

	// ── Load configuration ────────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "vtt-improve-srt: config file %q not found\n", *configPath)
			} else {
				fmt.Fprintf(os.Stderr, "vtt-improve-srt: %v\n", err)
			}
			return 1
		}
	}
	if *removeSpeaker {
		cfg.Output.RemoveSpeakerNames = true
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.LogLevel))

	slog.Info("vtt-improve-srt starting",
		"input", inputPath,
		"offline", *offline,
		"provider", cfg.Oracle.Provider,
		"model", cfg.Oracle.Model,
	)

	// ── Pattern store ─────────────────────────────────────────────────────────
	store, err := patterns.Load(cfg.PatternsPath)
	if err != nil {
		slog.Error("failed to load correction patterns", "path", cfg.PatternsPath, "err", err)
		return 1
	}

	// ── Oracle ────────────────────────────────────────────────────────────────
	ruleOracle := &transcript.RuleOracle{Rules: transcript.NewRules(store)}

	var oracle transcript.Oracle = ruleOracle
	if !*offline {
		provider, err := buildProvider(cfg)
		if err != nil {
			slog.Error("failed to build LLM provider", "err", err)
			return 1
		}
		// A broken backend degrades to rule-only correction instead of
		// timing out on every chunk.
		oracle = resilience.NewOracleChain(
			llmcorrect.New(provider, store),
			ruleOracle,
			resilience.BreakerConfig{Name: "llm-oracle"},
		)
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Run the pipeline ──────────────────────────────────────────────────────
	res, err := app.New(cfg, store, oracle).Run(ctx, inputPath)
	if err != nil {
		slog.Error("run failed", "err", err)
		return 1
	}

	slog.Info("done",
		"segments", res.Segments,
		"output", res.FinalPath,
		"term_warnings", len(res.TermHits),
	)
	fmt.Println(res.FinalPath)
	return 0
}

// buildProvider constructs the LLM backend named by the configuration. The
// API key is read from the configured environment variable and never
// appears in the configuration file itself.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	oc := cfg.Oracle
	apiKey := os.Getenv(oc.APIKeyEnv)

	switch oc.Provider {
	case "openai-compat":
		if apiKey == "" {
			return nil, fmt.Errorf("environment variable %s is not set", oc.APIKeyEnv)
		}
		opts := []openai.Option{openai.WithTimeout(oc.Timeout.Std())}
		if oc.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(oc.BaseURL))
		}
		return openai.New(apiKey, oc.Model, opts...)
	default:
		var opts []anyllmlib.Option
		if apiKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(apiKey))
		}
		if oc.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(oc.BaseURL))
		}
		return anyllm.New(oc.Provider, oc.Model, opts...)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
