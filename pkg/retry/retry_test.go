package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRetriesRetryableErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(boom)
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestDoDoesNotRetryPlainErrors(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("not wrapped")
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Retryable(errors.New("still failing"))
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoWithData(t *testing.T) {
	attempts := 0
	got, err := DoWithData(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		if attempts < 2 {
			return 0, Retryable(errors.New("transient"))
		}
		return 42, nil
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestDatabaseRetrierRecoversFromTransientFailure(t *testing.T) {
	attempts := 0
	err := DatabaseRetrier().Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return Retryable(errors.New("connection reset"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		return Retryable(errors.New("transient"))
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.Zero(t, attempts)
}
