package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/speedrun-hq/liberator/pkg/logger"
)

// ErrOpen is returned by Do while the circuit is tripped
var ErrOpen = errors.New("circuit breaker is open")

// State is a point-in-time view of a circuit breaker
type State struct {
	Enabled      bool      `json:"enabled"`
	Open         bool      `json:"open"`
	FailureCount int       `json:"failure_count"`
	Threshold    int       `json:"threshold"`
	LastFailure  time.Time `json:"last_failure,omitempty"`
	TripTime     time.Time `json:"trip_time,omitempty"`
}

// CircuitBreaker stops calls to an endpoint after repeated failures within a window
type CircuitBreaker struct {
	name          string
	enabled       bool
	failureCount  int
	failureWindow time.Duration
	failThreshold int
	resetTimeout  time.Duration
	lastFailure   time.Time
	tripped       bool
	tripTime      time.Time
	now           func() time.Time
	logger        logger.Logger
	mu            sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, enabled bool, threshold int, window time.Duration, resetTimeout time.Duration, log logger.Logger) *CircuitBreaker {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &CircuitBreaker{
		name:          name,
		enabled:       enabled,
		failThreshold: threshold,
		failureWindow: window,
		resetTimeout:  resetTimeout,
		now:           time.Now,
		logger:        log,
	}
}

// Do runs fn unless the circuit is open, recording its failure.
// Failures that isFailure rejects do not count against the circuit.
func (cb *CircuitBreaker) Do(fn func() error, isFailure func(error) bool) error {
	if cb.IsOpen() {
		return ErrOpen
	}
	err := fn()
	if err != nil && (isFailure == nil || isFailure(err)) {
		cb.RecordFailure()
	} else if err == nil {
		cb.recordSuccess()
	}
	return err
}

// RecordFailure records a failure and trips the circuit if threshold is exceeded
func (cb *CircuitBreaker) RecordFailure() bool {
	if !cb.enabled {
		return false
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()

	if cb.tripped {
		if now.Sub(cb.tripTime) > cb.resetTimeout {
			cb.logger.Notice("Circuit breaker %s: attempting to reset after timeout", cb.name)
			cb.tripped = false
			cb.failureCount = 0
		} else {
			return true
		}
	}

	// Reset failure count if outside window
	if now.Sub(cb.lastFailure) > cb.failureWindow {
		cb.failureCount = 0
	}

	cb.failureCount++
	cb.lastFailure = now

	if cb.failureCount >= cb.failThreshold {
		cb.tripped = true
		cb.tripTime = now
		cb.logger.Error("Circuit breaker %s tripped: %d failures in %s", cb.name, cb.failureCount, cb.failureWindow)
		return true
	}

	return false
}

// recordSuccess clears the failure streak
func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if !cb.tripped {
		cb.failureCount = 0
	}
}

// IsOpen returns true if the circuit is open (tripped)
func (cb *CircuitBreaker) IsOpen() bool {
	if !cb.enabled {
		return false
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	// Half-open: let the next call through once the reset timeout has passed
	if cb.tripped && cb.now().Sub(cb.tripTime) > cb.resetTimeout {
		cb.tripped = false
		cb.failureCount = 0
		return false
	}

	return cb.tripped
}

// Reset manually resets the circuit breaker
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.tripped = false
	cb.failureCount = 0
	cb.logger.Notice("Circuit breaker %s reset", cb.name)
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() State {
	open := cb.IsOpen()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	return State{
		Enabled:      cb.enabled,
		Open:         open,
		FailureCount: cb.failureCount,
		Threshold:    cb.failThreshold,
		LastFailure:  cb.lastFailure,
		TripTime:     cb.tripTime,
	}
}
