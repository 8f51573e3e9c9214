package clients

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/motivation-service/internal/platform/config"
)

// State is the position of a CircuitBreaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}

// CircuitBreakerConfig holds the breaker limits.
type CircuitBreakerConfig struct {
	// MaxFailures consecutive failures open a closed breaker.
	MaxFailures int

	// Timeout is how long an open breaker refuses calls.
	Timeout time.Duration

	// HalfOpenLimit bounds the probes in flight while half-open and is also
	// the run of successes that closes the breaker again.
	HalfOpenLimit int
}

// CircuitBreaker stops sending quote requests to a generator that keeps
// failing.
//
//	closed    --MaxFailures in a row-->  open
//	open      --Timeout elapsed------->  half-open
//	half-open --HalfOpenLimit OKs----->  closed
//	half-open --any failure----------->  open
//
// A nil *CircuitBreaker is valid: it allows everything and never trips.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu            sync.Mutex
	state         State
	streak        int // failures while closed, successes while half-open
	inFlight      int // half-open probes not yet recorded
	openedAt      time.Time
	onStateChange func(from, to State)
}

// NewCircuitBreaker returns a closed breaker. Limits below one become one.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.HalfOpenLimit = max(cfg.HalfOpenLimit, 1)

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// NewCircuitBreakerFromConfig returns nil unless cfg.Enabled. Transitions
// are logged at warn level when logger is set.
func NewCircuitBreakerFromConfig(cfg config.CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.Timeout,
		HalfOpenLimit: cfg.HalfOpenLimit,
	})

	if logger != nil {
		cb.OnStateChange(func(from, to State) {
			logger.Warn("circuit breaker state changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		})
	}

	return cb
}

// OnStateChange registers fn to run in its own goroutine on each transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.onStateChange = fn
	cb.mu.Unlock()
}

// Execute calls fn through the breaker. A non-nil error from fn counts as a
// failure. ErrCircuitOpen is returned without calling fn when refused.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}

	return err
}

// Allow reports whether one call may go out. Callers that get true must
// report the result with RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	if cb == nil {
		return true
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
			return false
		}
		cb.setState(StateHalfOpen)
	}

	if cb.state == StateHalfOpen {
		if cb.inFlight >= cb.cfg.HalfOpenLimit {
			return false
		}
		cb.inFlight++
	}

	return true
}

// RecordSuccess reports a call that got a usable reply.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.streak = 0
	case StateHalfOpen:
		cb.inFlight--
		if cb.streak++; cb.streak >= cb.cfg.HalfOpenLimit {
			cb.setState(StateClosed)
		}
	}
}

// RecordFailure reports a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		if cb.streak++; cb.streak >= cb.cfg.MaxFailures {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.inFlight--
		cb.setState(StateOpen)
	}
}

// State returns the current position. A nil breaker is always closed.
func (cb *CircuitBreaker) State() State {
	if cb == nil {
		return StateClosed
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// setState moves to next and resets the counters. cb.mu must be held.
func (cb *CircuitBreaker) setState(next State) {
	prev := cb.state
	if prev == next {
		return
	}

	cb.state = next
	cb.streak = 0
	if next != StateHalfOpen {
		cb.inFlight = 0
	}
	if next == StateOpen {
		cb.openedAt = cb.now()
	}

	if fn := cb.onStateChange; fn != nil {
		go fn(prev, next)
	}
}
