package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream failed")

func trip(cb *CircuitBreaker) {
	for i := 0; i < cb.threshold; i++ {
		cb.RecordFailure()
	}
}

func TestNew_Defaults(t *testing.T) {
	cb := New(Config{})

	if cb.threshold != 5 {
		t.Errorf("Expected default threshold 5, got %d", cb.threshold)
	}
	if cb.cooldown != time.Minute {
		t.Errorf("Expected default cooldown 1m, got %v", cb.cooldown)
	}
	if cb.halfOpenTimeout != 30*time.Second {
		t.Errorf("Expected default halfOpenTimeout 30s, got %v", cb.halfOpenTimeout)
	}
	if cb.Name() != "default" {
		t.Errorf("Expected default name 'default', got %q", cb.Name())
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected initial state CLOSED, got %s", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New(Config{Threshold: 3, Cooldown: time.Hour})

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != StateClosed {
		t.Fatalf("Expected CLOSED below threshold, got %s", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("Expected OPEN at threshold, got %s", cb.State())
	}
	if cb.Allow() {
		t.Error("Expected Allow() to return false while OPEN")
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := New(Config{Threshold: 3})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	if cb.Failures() != 0 {
		t.Errorf("Expected failures reset to 0, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	tests := []struct {
		name     string
		outcome  func(cb *CircuitBreaker)
		expected State
	}{
		{"probe succeeds", (*CircuitBreaker).RecordSuccess, StateClosed},
		{"probe fails", (*CircuitBreaker).RecordFailure, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := New(Config{Threshold: 1, Cooldown: 10 * time.Millisecond})
			trip(cb)
			time.Sleep(20 * time.Millisecond)

			if !cb.Allow() {
				t.Fatal("Expected the first call after cooldown to be allowed")
			}
			if cb.State() != StateHalfOpen {
				t.Fatalf("Expected HALF-OPEN, got %s", cb.State())
			}
			if cb.Allow() {
				t.Error("Expected a second concurrent probe to be rejected")
			}

			tt.outcome(cb)
			if cb.State() != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, cb.State())
			}
		})
	}
}

func TestCircuitBreaker_HalfOpenTimeout(t *testing.T) {
	cb := New(Config{Threshold: 1, Cooldown: 10 * time.Millisecond, HalfOpenTimeout: 10 * time.Millisecond})
	trip(cb)
	time.Sleep(20 * time.Millisecond)
	cb.Allow()

	time.Sleep(20 * time.Millisecond)
	if cb.Allow() {
		t.Error("Expected Allow() to return false after the probe timed out")
	}
	if cb.State() != StateOpen {
		t.Errorf("Expected OPEN after probe timeout, got %s", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := New(Config{Threshold: 1, Cooldown: time.Hour})
	trip(cb)

	cb.Reset()

	state, failures, lastFailure := cb.Stats()
	if state != StateClosed || failures != 0 || !lastFailure.IsZero() {
		t.Errorf("Expected clean CLOSED breaker, got %s/%d/%v", state, failures, lastFailure)
	}
	if cb.TimeUntilRetry() != 0 {
		t.Errorf("Expected no retry wait after reset, got %v", cb.TimeUntilRetry())
	}
}

func TestCircuitBreaker_TimeUntilRetry(t *testing.T) {
	cb := New(Config{Threshold: 1, Cooldown: time.Hour})

	if cb.TimeUntilRetry() != 0 {
		t.Errorf("Expected 0 while CLOSED, got %v", cb.TimeUntilRetry())
	}

	trip(cb)
	if wait := cb.TimeUntilRetry(); wait <= 59*time.Minute || wait > time.Hour {
		t.Errorf("Expected close to 1h, got %v", wait)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var mu sync.Mutex
	var transitions []string

	cb := New(Config{
		Name:      "catalog",
		Threshold: 1,
		Cooldown:  10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()
	cb.RecordSuccess()
	cb.Reset() // already closed, no transition

	expected := []string{
		"catalog:CLOSED->OPEN",
		"catalog:OPEN->HALF-OPEN",
		"catalog:HALF-OPEN->CLOSED",
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != len(expected) {
		t.Fatalf("Expected %d transitions, got %v", len(expected), transitions)
	}
	for i := range expected {
		if transitions[i] != expected[i] {
			t.Errorf("Transition %d: expected %q, got %q", i, expected[i], transitions[i])
		}
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := New(Config{Threshold: 2, Cooldown: time.Hour})
	ctx := context.Background()

	if err := cb.Execute(ctx, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func(context.Context) error { return errUpstream }); !errors.Is(err, errUpstream) {
			t.Fatalf("Expected upstream error to pass through, got %v", err)
		}
	}

	called := false
	err := cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Expected fn not to run while OPEN")
	}
}

func TestCircuitBreaker_ExecuteIgnoresCancellation(t *testing.T) {
	cb := New(Config{Threshold: 1, Cooldown: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if cb.State() != StateClosed || cb.Failures() != 0 {
		t.Errorf("Expected cancellation not to count, got %s with %d failures", cb.State(), cb.Failures())
	}
}

func TestCircuitBreaker_StateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateClosed, "CLOSED"},
		{StateOpen, "OPEN"},
		{StateHalfOpen, "HALF-OPEN"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}

func TestCircuitBreaker_ConcurrentAccess(t *testing.T) {
	cb := New(Config{Threshold: 100, Cooldown: time.Millisecond})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if cb.Allow() {
				if i%2 == 0 {
					cb.RecordFailure()
				} else {
					cb.RecordSuccess()
				}
			}
			_ = cb.State()
			_ = cb.TimeUntilRetry()
		}(i)
	}
	wg.Wait()
}
