package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoVal_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, NewTransientError(errors.New("rate limit"), 429)
		}
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, val)
	assert.Equal(t, 3, calls)
}

func TestDoVal_NonTransientReturnsImmediately(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("invalid api key")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("i/o timeout"), 0)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, IsTransient(err))
}

func TestDoVal_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := DoVal(ctx, fastRetry(10), func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(errors.New("connection reset by peer"), 0)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_CallTimeoutUnblocksHungCall(t *testing.T) {
	cfg := fastRetry(2)
	cfg.CallTimeout = 20 * time.Millisecond

	calls := 0
	start := time.Now()
	_, err := DoVal(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		<-ctx.Done() // provider never responds
		return 0, ctx.Err()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// Each attempt gets its own deadline, so timeouts are retried.
	assert.Equal(t, 2, calls)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDoVal_NoCallTimeoutLeavesContextUnbounded(t *testing.T) {
	cfg := fastRetry(1)

	val, err := DoVal(context.Background(), cfg, func(ctx context.Context) (int, error) {
		_, hasDeadline := ctx.Deadline()
		if hasDeadline {
			return 0, errors.New("unexpected deadline")
		}
		return 1, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, val)
}

func TestDoVal_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	_, _ = DoVal(context.Background(), cfg, func(ctx context.Context) (int, error) {
		return 0, NewTransientError(errors.New("too many requests"), 429)
	})

	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDoVal_CustomShouldRetry(t *testing.T) {
	calls := 0
	cfg := fastRetry(3)
	cfg.ShouldRetry = func(err error) bool { return true }

	_, err := DoVal(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("normally permanent")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoff_CapsAtMax(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     2 * time.Second,
		Multiplier:     10,
	}
	assert.Equal(t, 2*time.Second, backoff(5, cfg))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped transient", NewTransientError(errors.New("boom"), 503), true},
		{"rate limit text", errors.New("429 rate limit exceeded"), true},
		{"timeout text", errors.New("read tcp: i/o timeout"), true},
		{"permanent", errors.New("401 unauthorized"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	assert.True(t, IsTransientHTTPStatus(429))
	assert.True(t, IsTransientHTTPStatus(503))
	assert.False(t, IsTransientHTTPStatus(404))
	assert.False(t, IsTransientHTTPStatus(200))
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsSetImbalance(&SetImbalanceError{Problems: []string{"too few peers"}}))
	assert.True(t, IsInsufficientContext(&InsufficientContextError{Reason: "no seeds"}))
	assert.True(t, IsProviderUnavailable(&ProviderUnavailableError{Provider: "alpha"}))
	assert.False(t, IsSetImbalance(errors.New("other")))
}
