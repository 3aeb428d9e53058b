package orphans

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the sweeper is backing off a failing backend
var ErrCircuitOpen = errors.New("circuit breaker open")

type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Backend failing, no deletions attempted
	stateHalfOpen                     // Testing if backend recovered
)

func (s circuitState) String() string {
	switch s {
	case stateOpen:
		return "OPEN (failing)"
	case stateHalfOpen:
		return "HALF-OPEN (testing)"
	default:
		return "CLOSED (recovered)"
	}
}

// circuitBreaker stops a sweep from hammering a backend that keeps rejecting
// deletions. It opens after threshold consecutive failures and lets a single
// attempt through once openFor has passed.
type circuitBreaker struct {
	openedAt  time.Time
	now       func() time.Time
	threshold int
	failures  int
	openFor   time.Duration
	state     circuitState
	mu        sync.Mutex
}

func newCircuitBreaker(threshold int, openFor time.Duration) *circuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	return &circuitBreaker{
		threshold: threshold,
		openFor:   openFor,
		now:       time.Now,
	}
}

// canAttempt returns ErrCircuitOpen while the circuit is open
func (cb *circuitBreaker) canAttempt() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != stateOpen {
		return nil
	}

	nextRetry := cb.openedAt.Add(cb.openFor)
	if !cb.now().Before(nextRetry) {
		cb.setState(stateHalfOpen)
		return nil
	}
	return fmt.Errorf("%w (failures: %d, next retry: %s)", ErrCircuitOpen, cb.failures, nextRetry.Format("15:04:05"))
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.setState(stateClosed)
}

func (cb *circuitBreaker) recordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++

	// a failed trial attempt reopens immediately
	if cb.state == stateHalfOpen || cb.failures >= cb.threshold {
		cb.openedAt = cb.now()
		if cb.state != stateOpen {
			log.Printf("[ORPHANS-CIRCUIT] Opening circuit after %d consecutive failures. Last error: %v",
				cb.failures, err)
		}
		cb.state = stateOpen
		return
	}

	log.Printf("[ORPHANS-CIRCUIT] Failure %d/%d: %v", cb.failures, cb.threshold, err)
}

// setState must be called with the lock held
func (cb *circuitBreaker) setState(s circuitState) {
	if cb.state == s {
		return
	}
	cb.state = s
	log.Printf("[ORPHANS-CIRCUIT] Circuit is now %s", s)
}
