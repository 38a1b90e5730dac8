package websocket

import (
	appchat "github.com/watira/backend/internal/application/chat"
)

// Pusher 会话列表变更的 WebSocket 推送实现
type Pusher struct {
	hub *Hub
}

// NewPusher 创建 WebSocket 推送器
func NewPusher(hub *Hub) *Pusher {
	return &Pusher{hub: hub}
}

// Push 广播会话变更通知
func (p *Pusher) Push(n *appchat.Notification) error {
	return p.hub.Broadcast(n)
}

// 编译时检查接口实现
var _ appchat.Pusher = (*Pusher)(nil)
