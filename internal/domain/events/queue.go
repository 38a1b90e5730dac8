package events

import (
	"context"
	"time"
)

// Queue 回合事件队列接口
// 单条进程级 FIFO：生产者入队不阻塞，消费者阻塞等待（带超时）
type Queue interface {
	// Enqueue 入队一个事件，永不阻塞
	Enqueue(ev Event)

	// Dequeue 取出队首事件
	// 队列为空时最多等待 timeout；超时或 ctx 取消返回 (Event{}, false)
	// 超时不代表流结束，调用方应发送心跳后继续等待
	Dequeue(ctx context.Context, timeout time.Duration) (Event, bool)
}
