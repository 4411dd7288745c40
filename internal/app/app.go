// Package app wires the correction pipeline together: it owns the working
// directory layout of a run, feeds parsed subtitles through the scheduler
// and assembles the final SRT from per-chunk intermediates.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/takao11sep/vtt-improve-srt/internal/config"
	"github.com/takao11sep/vtt-improve-srt/internal/observe"
	"github.com/takao11sep/vtt-improve-srt/internal/patterns"
	"github.com/takao11sep/vtt-improve-srt/internal/progress"
	"github.com/takao11sep/vtt-improve-srt/internal/subtitle"
	"github.com/takao11sep/vtt-improve-srt/internal/transcript"
	"github.com/takao11sep/vtt-improve-srt/internal/transcript/termscan"
)

const finalOutputName = "final_output_corrected.srt"

// Result describes a completed run.
type Result struct {
	WorkDir   string
	FinalPath string
	Segments  int
	TermHits  []termscan.Hit
}

// App runs the VTT correction pipeline for a single input file.
type App struct {
	cfg     *config.Config
	store   *patterns.Store
	oracle  transcript.Oracle
	metrics *observe.Metrics
	now     func() time.Time
}

// Option configures an App.
type Option func(*App)

// WithMetrics sets the metrics sink used by the scheduler.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// WithClock overrides the clock used to name work directories. Tests use
// this for stable paths.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// New creates an App. The oracle decides how batches are corrected; pass a
// transcript.RuleOracle for offline runs.
func New(cfg *config.Config, store *patterns.Store, oracle transcript.Oracle, opts ...Option) *App {
	a := &App{
		cfg:    cfg,
		store:  store,
		oracle: oracle,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	return a
}

// Run processes inputPath end to end and returns where the results were
// written. The input file is copied into the work directory so the run is
// self-contained.
func (a *App) Run(ctx context.Context, inputPath string) (*Result, error) {
	if err := validateInput(inputPath); err != nil {
		return nil, err
	}

	workDir, err := CreateWorkDir(a.cfg.Output.WorkDirRoot, a.now())
	if err != nil {
		return nil, err
	}
	if err := copyFile(inputPath, filepath.Join(workDir, filepath.Base(inputPath))); err != nil {
		return nil, err
	}
	slog.Info("work directory created", "dir", workDir)

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	segments, err := subtitle.ParseVTT(in)
	in.Close()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", inputPath, err)
	}
	slog.Info("input parsed", "path", inputPath, "segments", len(segments))

	rules := transcript.NewRules(a.store)
	corrections, err := a.correct(ctx, segments, rules)
	if err != nil {
		return nil, err
	}

	chunks, err := a.writeChunks(workDir, segments, corrections)
	if err != nil {
		return nil, err
	}
	finalPath := filepath.Join(workDir, finalOutputName)
	if err := mergeChunks(finalPath, chunks); err != nil {
		return nil, err
	}
	slog.Info("final output written", "path", finalPath, "segments", len(segments))

	res := &Result{
		WorkDir:   workDir,
		FinalPath: finalPath,
		Segments:  len(segments),
	}
	if len(a.store.DentalTerms) > 0 {
		res.TermHits = termscan.New(a.store.DentalTerms).ScanAll(corrections)
		for _, hit := range res.TermHits {
			slog.Info("possible term variant",
				"segment", hit.Index, "found", hit.Found, "term", hit.Term)
		}
	}
	return res, nil
}

func (a *App) correct(ctx context.Context, segments []subtitle.Segment, rules *transcript.Rules) (map[int]string, error) {
	pc := a.cfg.Pipeline
	schedCfg := transcript.Config{
		ChunkSize:     pc.ChunkSize,
		ContextWindow: pc.ContextWindow,
		Passes:        pc.Passes,
		ChunkDelay:    pc.ChunkDelay.Std(),
	}

	totalChunks := 0
	if schedCfg.ChunkSize > 0 && len(segments) > 0 {
		perPass := (len(segments) + schedCfg.ChunkSize - 1) / schedCfg.ChunkSize
		totalChunks = perPass * max(schedCfg.Passes, 1)
	}
	bar := progress.New("correcting", int64(totalChunks))
	bar.Start()
	defer bar.Stop()

	sched := transcript.NewScheduler(a.oracle, rules, schedCfg,
		transcript.WithMetrics(a.metrics),
		transcript.WithOnChunk(func(res transcript.ChunkResult) {
			bar.Increment()
			if res.Failed {
				slog.Warn("chunk failed, originals kept",
					"pass", res.Pass, "chunk", res.Chunk, "of", res.TotalChunks)
				return
			}
			slog.Debug("chunk corrected",
				"pass", res.Pass, "chunk", res.Chunk, "of", res.TotalChunks,
				"segments", len(res.Entries))
		}),
	)
	return sched.Run(ctx, segments)
}

// writeChunks writes one intermediate SRT per chunk of the final
// corrections and returns the paths in chunk order.
func (a *App) writeChunks(workDir string, segments []subtitle.Segment, corrections map[int]string) ([]string, error) {
	size := a.cfg.Pipeline.ChunkSize
	if size < 1 {
		size = len(segments)
	}
	opts := subtitle.WriteOptions{StripSpeakerNames: a.cfg.Output.RemoveSpeakerNames}

	var paths []string
	for start := 0; start < len(segments); start += size {
		end := min(start+size, len(segments))
		path := filepath.Join(workDir, fmt.Sprintf("output_batch_%d.srt", len(paths)+1))
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", path, err)
		}
		err = subtitle.WriteSRT(f, segments[start:end], corrections, opts)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// mergeChunks concatenates the intermediate files into the final SRT.
// Record indices inside each chunk are already global, so plain
// concatenation yields a well-formed file.
func mergeChunks(finalPath string, chunks []string) error {
	var b strings.Builder
	for _, path := range chunks {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		b.Write(data)
	}
	if err := os.WriteFile(finalPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing final output: %w", err)
	}
	return nil
}

func validateInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input file %s is a directory", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".vtt") {
		return fmt.Errorf("input file %s is not a .vtt file", path)
	}
	return nil
}
