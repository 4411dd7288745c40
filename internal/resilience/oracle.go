package resilience

import (
	"context"
	"errors"
	"log/slog"

	"github.com/takao11sep/vtt-improve-srt/internal/transcript"
)

// OracleChain is a [transcript.Oracle] that dispatches to a primary oracle
// behind a [Breaker] and answers from a local fallback oracle while the
// primary is failing or the breaker is open. With a rule oracle as
// fallback, a backend outage degrades the run to rule-only correction
// instead of surfacing one failed chunk per timeout.
type OracleChain struct {
	primary  transcript.Oracle
	fallback transcript.Oracle
	breaker  *Breaker
}

var _ transcript.Oracle = (*OracleChain)(nil)

// NewOracleChain builds a chain over primary with the given breaker
// configuration. fallback may be nil, in which case primary errors are
// returned as-is and only the call suppression of the breaker applies.
func NewOracleChain(primary, fallback transcript.Oracle, cfg BreakerConfig) *OracleChain {
	if cfg.Name == "" {
		cfg.Name = "oracle"
	}
	return &OracleChain{
		primary:  primary,
		fallback: fallback,
		breaker:  NewBreaker(cfg),
	}
}

// Correct implements [transcript.Oracle].
func (c *OracleChain) Correct(ctx context.Context, batch transcript.Batch) (string, error) {
	var response string
	err := c.breaker.Execute(func() error {
		var callErr error
		response, callErr = c.primary.Correct(ctx, batch)
		return callErr
	})
	if err == nil {
		return response, nil
	}
	if c.fallback == nil {
		return "", err
	}

	if errors.Is(err, ErrOpen) {
		slog.Debug("primary oracle suppressed, using fallback",
			"pass", batch.Pass)
	} else {
		slog.Warn("primary oracle failed, using fallback",
			"pass", batch.Pass, "error", err)
	}
	return c.fallback.Correct(ctx, batch)
}
