package circuitbreaker

import (
	"context"
	"errors"
	"lyrics-resolver-go/logcolors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // Normal operation, calls allowed
	StateOpen                  // Tripped, calls rejected
	StateHalfOpen              // One probe call allowed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// StateChangeFunc is called after every state transition, outside the lock.
type StateChangeFunc func(name string, from, to State)

// CircuitBreaker guards calls to a flaky upstream
type CircuitBreaker struct {
	name            string
	state           State
	failures        int           // consecutive failures
	threshold       int           // failures before opening
	cooldown        time.Duration // how long to stay open
	halfOpenTimeout time.Duration // how long a probe may take before reopening
	openedAt        time.Time     // last failure / last time opened
	halfOpenStart   time.Time     // when the probe was let through
	onStateChange   StateChangeFunc
	mu              sync.RWMutex
}

// Config holds circuit breaker configuration
type Config struct {
	Name            string        // Name for logging
	Threshold       int           // Consecutive failures before opening
	Cooldown        time.Duration // How long to stay open before probing
	HalfOpenTimeout time.Duration // How long a probe may run before reopening
	OnStateChange   StateChangeFunc
}

// New creates a new circuit breaker
func New(cfg Config) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	if cfg.HalfOpenTimeout <= 0 {
		cfg.HalfOpenTimeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &CircuitBreaker{
		name:            cfg.Name,
		state:           StateClosed,
		threshold:       cfg.Threshold,
		cooldown:        cfg.Cooldown,
		halfOpenTimeout: cfg.HalfOpenTimeout,
		onStateChange:   cfg.OnStateChange,
	}
}

// Name returns the breaker's name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// transition must be called with mu held. It returns a func that fires the
// state change hook; callers run it after unlocking.
func (cb *CircuitBreaker) transition(to State) func() {
	from := cb.state
	cb.state = to
	if from == to || cb.onStateChange == nil {
		return func() {}
	}
	hook, name := cb.onStateChange, cb.name
	return func() { hook(name, from, to) }
}

// Allow reports whether a call may proceed
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	allowed, notify := cb.allowLocked()
	cb.mu.Unlock()
	notify()
	return allowed
}

func (cb *CircuitBreaker) allowLocked() (bool, func()) {
	switch cb.state {
	case StateOpen:
		if time.Since(cb.openedAt) < cb.cooldown {
			return false, func() {}
		}
		cb.halfOpenStart = time.Now()
		log.Infof("%s Cooldown passed, transitioning to HALF-OPEN", logcolors.CircuitBreakerPrefix(cb.name))
		return true, cb.transition(StateHalfOpen)

	case StateHalfOpen:
		// A probe is already in flight. If it has taken too long, give up on it.
		if time.Since(cb.halfOpenStart) >= cb.halfOpenTimeout {
			cb.openedAt = time.Now()
			log.Warnf("%s Probe timed out, transitioning back to OPEN", logcolors.CircuitBreakerPrefix(cb.name))
			return false, cb.transition(StateOpen)
		}
		return false, func() {}

	default:
		return true, func() {}
	}
}

// RecordSuccess records a successful call
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	notify := func() {}
	switch cb.state {
	case StateHalfOpen:
		cb.failures = 0
		log.Infof("%s Probe succeeded, transitioning to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
		notify = cb.transition(StateClosed)
	case StateClosed:
		cb.failures = 0
	}
	cb.mu.Unlock()
	notify()
}

// RecordFailure records a failed call
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	cb.failures++
	cb.openedAt = time.Now()

	notify := func() {}
	switch {
	case cb.state == StateHalfOpen:
		log.Warnf("%s Probe failed, transitioning back to OPEN", logcolors.CircuitBreakerPrefix(cb.name))
		notify = cb.transition(StateOpen)
	case cb.state == StateClosed && cb.failures >= cb.threshold:
		log.Warnf("%s Threshold reached (%d failures), transitioning to OPEN (cooldown: %v)",
			logcolors.CircuitBreakerPrefix(cb.name), cb.failures, cb.cooldown)
		notify = cb.transition(StateOpen)
	}
	cb.mu.Unlock()
	notify()
}

// Execute runs fn if the breaker allows it and records the outcome.
// Cancellation of ctx is not counted as an upstream failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	switch {
	case err == nil:
		cb.RecordSuccess()
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// Caller went away; leave the breaker as it is.
	default:
		cb.RecordFailure()
	}
	return err
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Threshold returns the configured failure threshold
func (cb *CircuitBreaker) Threshold() int {
	return cb.threshold
}

// Stats returns circuit breaker statistics
func (cb *CircuitBreaker) Stats() (state State, failures int, lastFailure time.Time) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state, cb.failures, cb.openedAt
}

// Reset manually resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.failures = 0
	cb.openedAt = time.Time{}
	cb.halfOpenStart = time.Time{}
	notify := cb.transition(StateClosed)
	cb.mu.Unlock()

	log.Infof("%s Manually reset to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
	notify()
}

// TimeUntilRetry returns how long until the breaker lets a probe through.
// Returns 0 when closed or when a probe may go now.
func (cb *CircuitBreaker) TimeUntilRetry() time.Duration {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	var remaining time.Duration
	switch cb.state {
	case StateOpen:
		remaining = cb.cooldown - time.Since(cb.openedAt)
	case StateHalfOpen:
		remaining = cb.halfOpenTimeout - time.Since(cb.halfOpenStart)
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}
