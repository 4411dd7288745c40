// Package resilience keeps the pipeline useful when the remote correction
// backend misbehaves.
//
// [Breaker] is a three-state circuit breaker (closed, open, half-open)
// tuned for the strictly sequential call pattern of the chunk scheduler:
// after enough consecutive failures it stops dispatching remote calls, and
// after a cooldown it lets a single probe call through. [OracleChain]
// composes a breaker-protected primary oracle with a local fallback so a
// long outage degrades to rule-only correction instead of one timeout per
// chunk.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Execute] when the breaker is open and the
// cooldown has not yet elapsed.
var ErrOpen = errors.New("resilience: breaker is open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrOpen] until the cooldown elapses.
	StateOpen

	// StateHalfOpen lets one probe call through. Success closes the
	// breaker, failure re-opens it.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds the tuning knobs for a [Breaker].
type BreakerConfig struct {
	// Name labels the breaker in log messages.
	Name string

	// MaxFailures is the number of consecutive failures before the
	// breaker opens. Default: 3.
	MaxFailures int

	// Cooldown is how long the breaker stays open before allowing a
	// probe call. Default: 60s.
	Cooldown time.Duration
}

// Breaker is a consecutive-failure circuit breaker. Safe for concurrent
// use, though the scheduler only ever calls it sequentially.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
}

// NewBreaker creates a [Breaker], replacing zero config fields with
// defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	return &Breaker{
		name:        cfg.Name,
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		now:         time.Now,
		state:       StateClosed,
	}
}

// Execute runs fn unless the breaker is open, and feeds the outcome back
// into the breaker's failure accounting. In the open state it returns
// [ErrOpen] without calling fn; once the cooldown has elapsed, the next
// Execute becomes the half-open probe.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.state == StateOpen {
		if b.now().Sub(b.lastFailure) < b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = StateHalfOpen
		slog.Info("breaker half-open, probing", "name", b.name)
	}
	probing := b.state == StateHalfOpen
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.lastFailure = b.now()
		if probing {
			b.state = StateOpen
			slog.Warn("breaker re-opened after failed probe", "name", b.name)
			return err
		}
		b.failures++
		if b.failures >= b.maxFailures {
			b.state = StateOpen
			slog.Warn("breaker opened",
				"name", b.name, "consecutive_failures", b.failures)
		}
		return err
	}

	if probing {
		slog.Info("breaker closed after successful probe", "name", b.name)
	}
	b.state = StateClosed
	b.failures = 0
	return nil
}

// State returns the breaker's current state. An open breaker whose
// cooldown has elapsed reports [StateHalfOpen]; the actual transition
// happens on the next [Breaker.Execute].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.lastFailure) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}
