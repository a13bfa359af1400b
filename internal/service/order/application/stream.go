// internal/service/order/application/stream.go
package application

import (
	"context"
	"time"

	"orderflow/internal/pkg/logger"
	"orderflow/internal/service/order/domain"
)

// SnapshotFunc 产出流中的第 seq 个订单快照。
type SnapshotFunc func(ctx context.Context, seq int) (*domain.Order, error)

// EventStream 按固定间隔产出订单快照的惰性序列。
// 每次 Run 都是一条独立的流，可以对同一个 EventStream 并发调用。
type EventStream struct {
	interval time.Duration
	source   SnapshotFunc
}

func NewEventStream(interval time.Duration, source SnapshotFunc) *EventStream {
	if interval <= 0 {
		interval = time.Second
	}
	return &EventStream{interval: interval, source: source}
}

// Run 启动一条流，返回只读通道。count <= 0 表示不限条数，只由 ctx 终止。
// 每个元素产出之前都会检查取消信号：ctx 取消后不再产出任何元素，
// 通道随即关闭，资源随协程退出一并释放。
func (s *EventStream) Run(ctx context.Context, count int) <-chan *domain.Order {
	out := make(chan *domain.Order)
	go func() {
		defer close(out)
		for seq := 0; count <= 0 || seq < count; seq++ {
			// 产出间隔同时也是协作式的取消检查点
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.interval):
			}

			snapshot, err := s.source(ctx, seq)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// 单次取数失败跳过本元素，流继续走
				logger.Ctx(ctx).Warn().Err(err).Int("seq", seq).Msg("stream snapshot failed")
				continue
			}
			if snapshot == nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- snapshot:
			}
		}
	}()
	return out
}
