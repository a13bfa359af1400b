// internal/service/order/application/limiter_test.go
package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsUpToCapacity(t *testing.T) {
	l := NewConcurrencyLimiter(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx))
	}

	// 第四个许可要等待，带 deadline 的 ctx 应该超时
	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Acquire(waitCtx))
}

func TestLimiterReleaseUnblocksWaiter(t *testing.T) {
	l := NewConcurrencyLimiter(1)
	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx))

	acquired := make(chan error, 1)
	go func() {
		acquired <- l.Acquire(ctx)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while the permit is held")
	case <-time.After(20 * time.Millisecond):
	}

	l.Release()
	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter was never unblocked")
	}
}

func TestLimiterDefaultsToOne(t *testing.T) {
	l := NewConcurrencyLimiter(0)
	require.NoError(t, l.Acquire(context.Background()))

	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Acquire(waitCtx))
}
