package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	b := New(Config{})
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 5, b.failureThreshold)
	assert.Equal(t, 2, b.successThreshold)
	assert.Equal(t, 30*time.Second, b.openTimeout)
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 3, OpenTimeout: time.Hour})

	b.RecordFailure()
	b.RecordFailure()
	require.NoError(t, b.Allow(), "still closed below threshold")

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 2, OpenTimeout: time.Hour})
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: time.Nanosecond})
	b.RecordFailure()
	time.Sleep(time.Millisecond)

	require.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordSuccess()
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	b := New(Config{FailureThreshold: 1, OpenTimeout: time.Nanosecond})
	b.RecordFailure()
	time.Sleep(time.Millisecond)
	require.NoError(t, b.Allow())

	b.RecordFailure()
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreaker_Do(t *testing.T) {
	t.Parallel()

	var transitions []State
	b := New(Config{
		FailureThreshold: 1,
		OpenTimeout:      time.Hour,
		OnStateChange:    func(from, to State) { transitions = append(transitions, to) },
	})

	boom := errors.New("boom")
	assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrCircuitOpen)
	assert.Equal(t, []State{StateOpen}, transitions)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
