// internal/service/order/application/stream_test.go
package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/service/order/domain"
)

func snapshotSource(order *domain.Order) SnapshotFunc {
	return func(ctx context.Context, seq int) (*domain.Order, error) {
		return order, nil
	}
}

func TestStreamEmitsExactlyCountElements(t *testing.T) {
	order := testOrder("cust-1")
	s := NewEventStream(5*time.Millisecond, snapshotSource(order))

	var got []*domain.Order
	for o := range s.Run(context.Background(), 3) {
		got = append(got, o)
	}

	require.Len(t, got, 3)
	for _, o := range got {
		assert.Equal(t, order.ID, o.ID)
	}
}

func TestStreamCancelStopsEmission(t *testing.T) {
	order := testOrder("cust-1")
	s := NewEventStream(5*time.Millisecond, snapshotSource(order))

	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Run(ctx, 0) // 不限条数

	for i := 0; i < 2; i++ {
		select {
		case _, ok := <-ch:
			require.True(t, ok)
		case <-time.After(time.Second):
			t.Fatal("stream stalled")
		}
	}
	cancel()

	// 取消后流必须在有限时间内关闭，且不再产出元素
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}

func TestStreamAlreadyCancelledEmitsNothing(t *testing.T) {
	order := testOrder("cust-1")
	s := NewEventStream(time.Millisecond, snapshotSource(order))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var count int
	for range s.Run(ctx, 5) {
		count++
	}
	assert.Zero(t, count)
}

func TestStreamSkipsFailedSnapshots(t *testing.T) {
	order := testOrder("cust-1")
	s := NewEventStream(time.Millisecond, func(ctx context.Context, seq int) (*domain.Order, error) {
		if seq == 1 {
			return nil, errors.New("store hiccup")
		}
		return order, nil
	})

	var got []*domain.Order
	for o := range s.Run(context.Background(), 3) {
		got = append(got, o)
	}

	// 第 1 个快照取数失败被跳过，流照常走完剩下的
	assert.Len(t, got, 2)
}

func TestStreamConcurrentRunsAreIndependent(t *testing.T) {
	order := testOrder("cust-1")
	s := NewEventStream(time.Millisecond, snapshotSource(order))

	ch1 := s.Run(context.Background(), 2)
	ch2 := s.Run(context.Background(), 4)

	var n1, n2 int
	for range ch1 {
		n1++
	}
	for range ch2 {
		n2++
	}
	assert.Equal(t, 2, n1)
	assert.Equal(t, 4, n2)
}
