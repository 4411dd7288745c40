package transcript

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/takao11sep/vtt-improve-srt/internal/observe"
	"github.com/takao11sep/vtt-improve-srt/internal/subtitle"
)

const (
	defaultChunkSize = 100
	defaultPasses    = 1
)

// Config carries the scheduling parameters for one run. It is passed in
// explicitly at construction — never ambient — so tests can run schedulers
// with differing configurations side by side.
type Config struct {
	// ChunkSize is the maximum number of segments per oracle batch.
	// Values below 1 fall back to 100.
	ChunkSize int

	// ContextWindow is the number of segments included before and after
	// each chunk as read-only prompt context. 0 disables context.
	ContextWindow int

	// Passes is the number of oracle sweeps over the full sequence.
	// Pass n corrects the output of pass n-1. Values below 1 fall back to 1.
	Passes int

	// ChunkDelay is the minimum pause between consecutive chunk dispatches
	// within a pass, honouring external rate constraints. No delay follows
	// the final chunk of a pass.
	ChunkDelay time.Duration
}

// ChunkResult describes one completed chunk dispatch, delivered to the
// OnChunk hook. Corrected holds the post-fallback corrections for exactly
// the chunk's indices.
type ChunkResult struct {
	Pass        int
	Chunk       int
	TotalChunks int
	Entries     []Entry
	Corrected   map[int]string
	Failed      bool
}

// SchedulerOption is a functional option for configuring a [Scheduler].
type SchedulerOption func(*Scheduler)

// WithMetrics attaches a [observe.Metrics] instance. When unset, the
// package-level default instruments are used.
func WithMetrics(m *observe.Metrics) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithOnChunk registers a hook invoked after every chunk completes (whether
// corrected or failed). Intended for progress reporting and per-chunk
// intermediate output; the hook must not mutate the result.
func WithOnChunk(fn func(ChunkResult)) SchedulerOption {
	return func(s *Scheduler) {
		s.onChunk = fn
	}
}

// WithSleep replaces the inter-chunk delay function. Tests inject a
// recording no-op here.
func WithSleep(fn func(context.Context, time.Duration)) SchedulerOption {
	return func(s *Scheduler) {
		s.sleep = fn
	}
}

// Scheduler partitions a segment sequence into bounded chunks, dispatches
// each chunk to an [Oracle], and merges the parsed responses into a single
// correction map keyed by segment index.
//
// Processing is strictly sequential: one chunk at a time, one pass at a
// time. The correction map is the only state carried across chunks and it is
// never read concurrently with a write. A chunk-level oracle failure is
// recovered by keeping the pre-chunk text for every segment in the chunk;
// it never aborts the run.
type Scheduler struct {
	oracle  Oracle
	rules   *Rules
	cfg     Config
	metrics *observe.Metrics
	onChunk func(ChunkResult)
	sleep   func(context.Context, time.Duration)
}

// NewScheduler constructs a [Scheduler]. rules may be nil to skip the final
// deterministic substitution pass (the offline [RuleOracle] already applies
// it per chunk).
func NewScheduler(oracle Oracle, rules *Rules, cfg Config, opts ...SchedulerOption) *Scheduler {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.Passes < 1 {
		cfg.Passes = defaultPasses
	}
	s := &Scheduler{
		oracle: oracle,
		rules:  rules,
		cfg:    cfg,
		sleep:  sleepCtx,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Run corrects segments and returns the final correction map. The map covers
// exactly the indices of segments: every index receives either an
// oracle-returned value or a fallback value. The input segments are never
// mutated.
//
// Run returns an error only when ctx is cancelled; oracle failures are
// handled internally.
func (s *Scheduler) Run(ctx context.Context, segments []subtitle.Segment) (map[int]string, error) {
	corrected := make(map[int]string, len(segments))
	for _, seg := range segments {
		corrected[seg.Index] = seg.Text
	}
	if len(segments) == 0 {
		return corrected, nil
	}

	totalChunks := (len(segments) + s.cfg.ChunkSize - 1) / s.cfg.ChunkSize

	for pass := 1; pass <= s.cfg.Passes; pass++ {
		// Pass input: original order, text as of the previous pass.
		input := make([]Entry, len(segments))
		for i, seg := range segments {
			input[i] = Entry{Index: seg.Index, Text: corrected[seg.Index]}
		}

		slog.Info("correction pass starting",
			"pass", pass, "segments", len(input), "chunks", totalChunks)

		for chunk := 0; chunk < totalChunks; chunk++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			start := chunk * s.cfg.ChunkSize
			end := min(start+s.cfg.ChunkSize, len(input))
			batch := Batch{
				Pass:    pass,
				Entries: input[start:end],
			}
			if pass == 1 {
				// Later passes re-check already-corrected text and
				// need no surrounding material.
				batch.ContextBefore = input[max(0, start-s.cfg.ContextWindow):start]
				batch.ContextAfter = input[end:min(len(input), end+s.cfg.ContextWindow)]
			}

			result := ChunkResult{
				Pass:        pass,
				Chunk:       chunk + 1,
				TotalChunks: totalChunks,
				Entries:     batch.Entries,
			}

			response, err := s.callOracle(ctx, batch)
			if err != nil {
				// Chunk no-op: every segment keeps its pre-chunk text.
				slog.Warn("oracle failed, keeping pre-chunk text",
					"pass", pass, "chunk", chunk+1, "error", err)
				s.metrics.OracleFailures.Add(ctx, 1)
				s.metrics.RecordChunk(ctx, pass, "failed")

				result.Failed = true
				result.Corrected = make(map[int]string, len(batch.Entries))
				for _, e := range batch.Entries {
					result.Corrected[e.Index] = e.Text
				}
			} else {
				chunkMap, fallbacks := ParseTagged(response, batch.Entries)
				if fallbacks > 0 {
					slog.Debug("response did not cover every segment",
						"pass", pass, "chunk", chunk+1, "fallbacks", fallbacks)
					s.metrics.FallbackSegments.Add(ctx, int64(fallbacks))
				}
				s.metrics.RecordChunk(ctx, pass, "ok")

				for idx, text := range chunkMap {
					corrected[idx] = text
				}
				result.Corrected = chunkMap
			}

			if s.onChunk != nil {
				s.onChunk(result)
			}

			if chunk < totalChunks-1 {
				s.sleep(ctx, s.cfg.ChunkDelay)
			}
		}
	}

	// Final deterministic substitution pass, regardless of how many oracle
	// passes ran.
	if s.rules != nil {
		for idx, text := range corrected {
			corrected[idx] = s.rules.Apply(text)
		}
	}

	return corrected, nil
}

// callOracle dispatches one batch, recording call latency.
func (s *Scheduler) callOracle(ctx context.Context, batch Batch) (string, error) {
	t0 := time.Now()
	response, err := s.oracle.Correct(ctx, batch)
	s.metrics.OracleDuration.Record(ctx, time.Since(t0).Seconds(),
		metric.WithAttributes(attribute.Int("pass", batch.Pass)))
	return response, err
}

// sleepCtx pauses for d, returning early when ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
