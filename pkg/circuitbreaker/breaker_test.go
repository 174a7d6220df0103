package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(enabled bool) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("rpc", enabled, 3, time.Minute, 10*time.Second, nil)
	cb.now = clock.now
	return cb, clock
}

func TestCircuitBreakerTripsAtThreshold(t *testing.T) {
	cb, _ := newTestBreaker(true)

	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.RecordFailure())
	assert.True(t, cb.RecordFailure())
	assert.True(t, cb.IsOpen())

	err := cb.Do(func() error { return nil }, nil)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestCircuitBreakerHalfOpensAfterReset(t *testing.T) {
	cb, clock := newTestBreaker(true)
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	assert.True(t, cb.IsOpen())

	clock.t = clock.t.Add(11 * time.Second)
	assert.False(t, cb.IsOpen())
	assert.Equal(t, 0, cb.State().FailureCount)
}

func TestCircuitBreakerWindowExpiry(t *testing.T) {
	cb, clock := newTestBreaker(true)
	cb.RecordFailure()
	cb.RecordFailure()

	clock.t = clock.t.Add(2 * time.Minute)
	assert.False(t, cb.RecordFailure(), "failures outside the window should not accumulate")
	assert.Equal(t, 1, cb.State().FailureCount)
}

func TestCircuitBreakerDo(t *testing.T) {
	cb, _ := newTestBreaker(true)
	boom := errors.New("boom")
	ignored := errors.New("application error")
	onlyBoom := func(err error) bool { return errors.Is(err, boom) }

	assert.ErrorIs(t, cb.Do(func() error { return ignored }, onlyBoom), ignored)
	assert.Equal(t, 0, cb.State().FailureCount)

	assert.ErrorIs(t, cb.Do(func() error { return boom }, onlyBoom), boom)
	assert.Equal(t, 1, cb.State().FailureCount)

	assert.NoError(t, cb.Do(func() error { return nil }, onlyBoom))
	assert.Equal(t, 0, cb.State().FailureCount, "a success clears the streak")
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb, _ := newTestBreaker(false)
	for i := 0; i < 10; i++ {
		assert.False(t, cb.RecordFailure())
	}
	assert.False(t, cb.IsOpen())

	cb.Reset()
	assert.False(t, cb.State().Open)
}
