package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("store unreachable")

func TestOpensAfterMaxFailures(t *testing.T) {
	b := New(Config{MaxFailures: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		err := b.Do(func() error { return errStore })
		require.ErrorIs(t, err, errStore)
	}

	require.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called, "open breaker must not invoke the store")
}

func TestClosedResetsFailureCountOnSuccess(t *testing.T) {
	b := New(Config{MaxFailures: 2, Timeout: time.Minute})

	require.Error(t, b.Do(func() error { return errStore }))
	require.NoError(t, b.Do(func() error { return nil }))
	require.Error(t, b.Do(func() error { return errStore }))

	assert.Equal(t, StateClosed, b.State())
}

func TestHalfOpenRecovery(t *testing.T) {
	b := New(Config{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	require.Error(t, b.Do(func() error { return errStore }))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)

	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New(Config{MaxFailures: 1, Timeout: 10 * time.Millisecond})

	require.Error(t, b.Do(func() error { return errStore }))
	time.Sleep(20 * time.Millisecond)

	require.Error(t, b.Do(func() error { return errStore }))
	assert.Equal(t, StateOpen, b.State())
}

func TestManualReset(t *testing.T) {
	b := New(Config{MaxFailures: 1, Timeout: time.Hour})

	require.Error(t, b.Do(func() error { return errStore }))
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Do(func() error { return nil }))
}
