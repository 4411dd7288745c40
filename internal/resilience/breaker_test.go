package resilience

import (
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("test error")

func fail() error { return errTest }
func ok() error   { return nil }

func TestNewBreakerDefaults(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test"})
	if b.maxFailures != 3 {
		t.Errorf("maxFailures = %d, want 3", b.maxFailures)
	}
	if b.cooldown != time.Minute {
		t.Errorf("cooldown = %v, want 1m", b.cooldown)
	}
	if b.State() != StateClosed {
		t.Errorf("initial state = %v, want closed", b.State())
	}
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 2})

	if err := b.Execute(fail); !errors.Is(err, errTest) {
		t.Fatalf("first failure: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state after one failure = %v, want closed", b.State())
	}

	if err := b.Execute(fail); !errors.Is(err, errTest) {
		t.Fatalf("second failure: %v", err)
	}
	if b.State() != StateOpen {
		t.Errorf("state after two failures = %v, want open", b.State())
	}

	// Open breaker rejects without calling through.
	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn called while breaker open")
	}
}

func TestBreakerSuccessResetsCounter(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 2})

	b.Execute(fail)
	b.Execute(ok)
	b.Execute(fail)
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after interleaved success", b.State())
	}
}

func TestBreakerProbeAfterCooldown(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 1, Cooldown: time.Minute})
	b.now = func() time.Time { return now }

	b.Execute(fail)
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	// Cooldown elapses; the next call is the probe.
	now = now.Add(61 * time.Second)
	if b.State() != StateHalfOpen {
		t.Errorf("state = %v, want half-open after cooldown", b.State())
	}

	if err := b.Execute(ok); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state after successful probe = %v, want closed", b.State())
	}
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 1, Cooldown: time.Minute})
	b.now = func() time.Time { return now }

	b.Execute(fail)
	now = now.Add(2 * time.Minute)

	if err := b.Execute(fail); !errors.Is(err, errTest) {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != StateOpen {
		t.Errorf("state after failed probe = %v, want open", b.State())
	}
	if err := b.Execute(ok); !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen right after re-open", err)
	}
}
