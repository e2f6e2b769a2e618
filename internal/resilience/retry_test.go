package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0

	err := policy.Do(context.Background(), func() error {
		calls++
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0

	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	failure := errors.New("permanent")

	err := policy.Do(context.Background(), func() error {
		calls++
		return failure
	}, nil)

	assert.Equal(t, failure, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	policy := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}
	calls := 0
	fatal := errors.New("bad request")

	err := policy.Do(context.Background(), func() error {
		calls++
		return fatal
	}, func(err error) bool { return false })

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	policy := Policy{MaxAttempts: 10, BaseDelay: 50 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	failure := errors.New("transient")

	err := policy.Do(ctx, func() error {
		calls++
		cancel()
		return failure
	}, nil)

	assert.Equal(t, failure, err)
	assert.Equal(t, 1, calls)
}

func TestDelayDoublesAndCaps(t *testing.T) {
	policy := Policy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 3 * time.Second}

	assert.Equal(t, time.Second, policy.delay(1))
	assert.Equal(t, 2*time.Second, policy.delay(2))
	assert.Equal(t, 3*time.Second, policy.delay(3))
	assert.Equal(t, 3*time.Second, policy.delay(4))
}
