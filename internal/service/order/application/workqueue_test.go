// internal/service/order/application/workqueue_test.go
package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerExecutesInFIFOOrder(t *testing.T) {
	queue := NewWorkQueue(16)
	results := make(chan int, 10)

	for i := 0; i < 10; i++ {
		i := i
		queue.Enqueue(WorkItem{Run: func(ctx context.Context) error {
			results <- i
			return nil
		}})
	}
	assert.Equal(t, 10, queue.Len())

	worker := NewWorker(queue)
	worker.Start(context.Background())
	defer worker.Stop()

	for want := 0; want < 10; want++ {
		select {
		case got := <-results:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for item %d", want)
		}
	}
}

func TestWorkerSurvivesPanickingItem(t *testing.T) {
	queue := NewWorkQueue(4)
	done := make(chan struct{})

	queue.Enqueue(WorkItem{Run: func(ctx context.Context) error {
		panic("poison item")
	}})
	queue.Enqueue(WorkItem{Run: func(ctx context.Context) error {
		close(done)
		return nil
	}})

	worker := NewWorker(queue)
	worker.Start(context.Background())
	defer worker.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the panicking item")
	}
}

func TestWorkerStopWaitsForCurrentItem(t *testing.T) {
	queue := NewWorkQueue(4)
	started := make(chan struct{})
	finished := make(chan struct{})

	queue.Enqueue(WorkItem{Run: func(ctx context.Context) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		close(finished)
		return nil
	}})

	worker := NewWorker(queue)
	worker.Start(context.Background())

	<-started
	worker.Stop()

	// Stop 返回时当前工作项必须已执行完
	select {
	case <-finished:
	default:
		t.Fatal("Stop returned before the in-flight item finished")
	}
}

func TestDequeueReturnsFalseOnCancel(t *testing.T) {
	queue := NewWorkQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := queue.Dequeue(ctx)
	assert.False(t, ok)
}

func TestWorkItemUsesItsOwnContext(t *testing.T) {
	queue := NewWorkQueue(4)
	type ctxKey struct{}
	itemCtx := context.WithValue(context.Background(), ctxKey{}, "detached")

	got := make(chan interface{}, 1)
	queue.Enqueue(WorkItem{
		Ctx: itemCtx,
		Run: func(ctx context.Context) error {
			got <- ctx.Value(ctxKey{})
			return nil
		},
	})

	worker := NewWorker(queue)
	worker.Start(context.Background())
	defer worker.Stop()

	select {
	case v := <-got:
		require.Equal(t, "detached", v)
	case <-time.After(time.Second):
		t.Fatal("work item never ran")
	}
}
