// Package events 提供事件队列的进程内实现
package events

import (
	"context"
	"sync"
	"time"

	"log/slog"

	domainEvents "github.com/watira/backend/internal/domain/events"
	"github.com/watira/backend/internal/infrastructure/log"
)

// fifoQueue 无界 FIFO 队列
// 生产者入队永不阻塞；消费者空队列时等待唤醒或超时
type fifoQueue struct {
	mu     sync.Mutex
	items  []domainEvents.Event
	wake   chan struct{}
	logger *slog.Logger
}

// NewQueue 创建事件队列实例
func NewQueue() domainEvents.Queue {
	return &fifoQueue{
		wake:   make(chan struct{}, 1),
		logger: log.NewModuleLogger("events", "queue"),
	}
}

// Enqueue 入队事件，不阻塞
func (q *fifoQueue) Enqueue(ev domainEvents.Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	// 唤醒一个等待中的消费者；已有唤醒信号时直接跳过
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Dequeue 取出队首事件，空队列时等待至多 timeout
func (q *fifoQueue) Dequeue(ctx context.Context, timeout time.Duration) (domainEvents.Event, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return ev, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
			// 被唤醒后回到循环头重新检查，事件可能已被其他消费者取走
		case <-deadline.C:
			return domainEvents.Event{}, false
		case <-ctx.Done():
			return domainEvents.Event{}, false
		}
	}
}

// 编译时检查接口实现
var _ domainEvents.Queue = (*fifoQueue)(nil)
