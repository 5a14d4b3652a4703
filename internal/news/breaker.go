package news

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker rejects calls to the news endpoint
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerState represents the state of the circuit breaker
type BreakerState string

const (
	StateClosed   BreakerState = "closed"    // Normal operation
	StateOpen     BreakerState = "open"      // Failing, reject requests
	StateHalfOpen BreakerState = "half-open" // One trial allowed
)

// Breaker stops calling the news endpoint after repeated failures and lets a
// single trial through once the cool-down has elapsed.
type Breaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	openedAt    time.Time
	inTrial     bool
	threshold   int
	coolDown    time.Duration
	now         func() time.Time
	rejected    int64
	lastFailure error
}

// NewBreaker creates a breaker that opens after threshold consecutive failures
func NewBreaker(threshold int, coolDown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 3
	}
	if coolDown <= 0 {
		coolDown = 5 * time.Minute
	}
	return &Breaker{
		state:     StateClosed,
		threshold: threshold,
		coolDown:  coolDown,
		now:       time.Now,
	}
}

// Call runs fn unless the breaker is open, and records its outcome. A failure
// caused by ctx ending is not held against the endpoint.
func (b *Breaker) Call(ctx context.Context, fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn()
	if err != nil && ctx.Err() != nil {
		b.release()
		return err
	}
	b.record(err)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.coolDown {
			b.rejected++
			return ErrCircuitOpen
		}
		b.setState(StateHalfOpen)
		b.inTrial = true
		return nil
	case StateHalfOpen:
		if b.inTrial {
			b.rejected++
			return ErrCircuitOpen
		}
		b.inTrial = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inTrial = false
	if err == nil {
		if b.state != StateClosed || b.failures > 0 {
			log.Printf("[CircuitBreaker] Success after %d failures, closing", b.failures)
		}
		b.failures = 0
		b.setState(StateClosed)
		return
	}

	b.failures++
	b.lastFailure = err
	if b.state == StateHalfOpen || b.failures >= b.threshold {
		b.openedAt = b.now()
		b.setState(StateOpen)
	}
}

// release ends a call without counting it
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inTrial = false
}

func (b *Breaker) setState(s BreakerState) {
	if b.state != s {
		log.Printf("[CircuitBreaker] State transition: %s → %s (failures=%d)", b.state, s, b.failures)
	}
	b.state = s
}

// State returns the current state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot for the /config endpoint and logs
func (b *Breaker) Stats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := map[string]interface{}{
		"state":    string(b.state),
		"failures": b.failures,
		"rejected": b.rejected,
	}
	if b.lastFailure != nil {
		stats["last_failure"] = b.lastFailure.Error()
	}
	return stats
}
