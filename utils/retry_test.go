package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewNopLogger()}
	calls := 0

	err := r.Do("ping", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryGivesUp(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewNopLogger()}
	cause := errors.New("connection refused")
	calls := 0

	err := r.Do("ping", func() error {
		calls++
		return cause
	})

	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "ping failed after 2 attempts: connection refused")
	assert.Equal(t, 2, calls)
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	r := &RetryConfig{Logger: NewNopLogger()}
	calls := 0
	_ = r.Do("op", func() error { calls++; return errors.New("x") })
	assert.Equal(t, 1, calls)
}
