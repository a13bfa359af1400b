// internal/service/order/application/workqueue.go
package application

import (
	"context"
	"runtime/debug"
	"sync"

	"orderflow/internal/pkg/logger"
)

// WorkItem 是一个延迟执行的工作单元。
// Ctx 携带提交时捕获的链路信息（已与请求的取消信号脱钩），Run 是实际要做的事。
type WorkItem struct {
	Ctx context.Context
	Run func(ctx context.Context) error
}

// WorkQueue 是一个有界的 FIFO 工作队列。
// 生产者在缓冲满时阻塞，形成自然的背压。
type WorkQueue struct {
	items chan WorkItem
}

// NewWorkQueue 创建容量为 capacity 的队列。capacity <= 0 时使用默认容量。
func NewWorkQueue(capacity int) *WorkQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &WorkQueue{items: make(chan WorkItem, capacity)}
}

// Enqueue 按提交顺序入队。缓冲满时阻塞调用方直到有空位。
func (q *WorkQueue) Enqueue(item WorkItem) {
	q.items <- item
	queueDepth.Inc()
}

// Dequeue 取出队首工作项。队列为空时阻塞，ctx 取消时返回 false。
func (q *WorkQueue) Dequeue(ctx context.Context) (WorkItem, bool) {
	select {
	case item := <-q.items:
		queueDepth.Dec()
		return item, true
	case <-ctx.Done():
		return WorkItem{}, false
	}
}

// Len 返回当前缓冲中的工作项数量。
func (q *WorkQueue) Len() int {
	return len(q.items)
}

// Worker 单协程消费 WorkQueue，保证工作项按入队顺序执行。
// 单个工作项的失败或 panic 只影响自身，worker 继续消费后续项。
type Worker struct {
	queue  *WorkQueue
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(queue *WorkQueue) *Worker {
	return &Worker{queue: queue}
}

// Start 启动消费循环。重复调用会叠加消费者，破坏 FIFO，调用方自行保证只启动一次。
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop(ctx)
	}()
}

// Stop 停止消费并等待当前工作项执行完毕。已入队未消费的项保留在队列中。
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		item, ok := w.queue.Dequeue(ctx)
		if !ok {
			return
		}
		w.execute(ctx, item)
	}
}

func (w *Worker) execute(loopCtx context.Context, item WorkItem) {
	ctx := item.Ctx
	if ctx == nil {
		ctx = loopCtx
	}

	defer func() {
		if r := recover(); r != nil {
			queueItemsTotal.WithLabelValues("panic").Inc()
			logger.Ctx(ctx).Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("work item panicked, worker keeps running")
		}
	}()

	if err := item.Run(ctx); err != nil {
		queueItemsTotal.WithLabelValues("error").Inc()
		logger.Ctx(ctx).Error().Err(err).Msg("work item failed")
		return
	}
	queueItemsTotal.WithLabelValues("ok").Inc()
}
