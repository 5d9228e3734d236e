package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(b *Breaker, success bool) error {
	_, err := Execute(b, func() (string, error) {
		if success {
			return "ok", nil
		}
		return "", errors.New("failed")
	})
	return err
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		settings      Settings
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name: "stays closed on successes",
			settings: Settings{
				MaxRequests: 1,
				Interval:    time.Minute,
				Timeout:     time.Minute,
			},
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name: "opens after consecutive failures",
			settings: Settings{
				MaxRequests: 1,
				Interval:    time.Minute,
				Timeout:     time.Minute,
				ReadyToTrip: func(counts Counts) bool {
					return counts.ConsecutiveFailures >= 3
				},
			},
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name: "success resets the failure streak",
			settings: Settings{
				MaxRequests: 1,
				Interval:    time.Minute,
				Timeout:     time.Minute,
				ReadyToTrip: func(counts Counts) bool {
					return counts.ConsecutiveFailures >= 2
				},
			},
			requests:      []bool{false, true, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := New("test", tt.settings)

			for _, success := range tt.requests {
				_ = call(breaker, success)
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker := New("test", Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
	})

	require.NoError(t, call(breaker, true))

	counts := breaker.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)
	assert.Equal(t, uint32(0), counts.TotalFailures)

	assert.Error(t, call(breaker, false))

	counts = breaker.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	breaker := New("test", Settings{
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})

	_, err := Execute(breaker, func() (int, error) {
		return 0, fmt.Errorf("request aborted: %w", context.Canceled)
	})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(0), breaker.Counts().TotalFailures)
}

func TestBreakerCustomFailurePredicate(t *testing.T) {
	errClient := errors.New("bad request")
	breaker := New("test", Settings{
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, errClient)
		},
	})

	_, err := Execute(breaker, func() (int, error) { return 0, errClient })
	assert.ErrorIs(t, err, errClient)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerOpenState(t *testing.T) {
	breaker := New("test", Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	})

	for i := 0; i < 2; i++ {
		_ = call(breaker, false)
	}

	assert.Equal(t, StateOpen, breaker.State())

	// Next request should fail immediately without running
	ran := false
	_, err := Execute(breaker, func() (string, error) {
		ran = true
		return "ok", nil
	})
	assert.Equal(t, ErrCircuitOpen, err)
	assert.False(t, ran)
}

func TestBreakerHalfOpenState(t *testing.T) {
	breaker := New("test", Settings{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     50 * time.Millisecond,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
	})

	for i := 0; i < 2; i++ {
		_ = call(breaker, false)
	}

	assert.Equal(t, StateOpen, breaker.State())

	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, StateHalfOpen, breaker.State())

	for i := 0; i < 2; i++ {
		require.NoError(t, call(breaker, true))
	}

	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string

	breaker := New("test", Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
		OnStateChange: func(name string, from State, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	for i := 0; i < 2; i++ {
		_ = call(breaker, false)
	}

	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, StateHalfOpen, breaker.State())
	assert.Contains(t, transitions, "closed->open")
	assert.Contains(t, transitions, "open->half-open")
}

func TestNilBreakerAdmitsEverything(t *testing.T) {
	var breaker *Breaker

	for i := 0; i < 10; i++ {
		_ = call(breaker, false)
	}

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, "", breaker.Name())
	assert.NoError(t, call(breaker, true))
}
