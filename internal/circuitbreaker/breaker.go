// Package circuitbreaker guards calls to the durable account store. When
// the store is down, authentication fails closed immediately instead of
// stacking up timed-out lookups.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker refuses calls.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
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

type Config struct {
	MaxFailures     int           // failures before opening; default 5
	Timeout         time.Duration // how long to stay open; default 30s
	HalfOpenSuccess int           // successes needed in half-open to close; default 1
}

type Breaker struct {
	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	maxFailures     int
	timeout         time.Duration
	halfOpenSuccess int
}

func New(cfg Config) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenSuccess <= 0 {
		cfg.HalfOpenSuccess = 1
	}

	return &Breaker{
		state:           StateClosed,
		maxFailures:     cfg.MaxFailures,
		timeout:         cfg.Timeout,
		halfOpenSuccess: cfg.HalfOpenSuccess,
	}
}

// Do runs fn under breaker protection. While open, fn is not called and
// ErrOpen is returned immediately.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()

	if b.state == StateOpen {
		if time.Since(b.lastFailureTime) > b.timeout {
			b.state = StateHalfOpen
			b.successCount = 0
		} else {
			b.mu.Unlock()
			return ErrOpen
		}
	}

	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.onFailure()
		return err
	}

	b.onSuccess()
	return nil
}

func (b *Breaker) onFailure() {
	b.failureCount++
	b.lastFailureTime = time.Now()

	// Any failure in half-open re-opens the circuit.
	if b.state == StateHalfOpen || b.failureCount >= b.maxFailures {
		b.state = StateOpen
		b.successCount = 0
	}
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.halfOpenSuccess {
			b.state = StateClosed
			b.failureCount = 0
		}
	case StateClosed:
		b.failureCount = 0
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
}
