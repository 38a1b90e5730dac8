package chat

import (
	"context"

	"github.com/watira/backend/internal/domain/chat"
)

// Generator 文本生成模型
type Generator interface {
	Generate(ctx context.Context, prompt string, history []*chat.Message) (string, error)
}

// Searcher 外部文档检索
// 失败降级为空结果，由实现方保证
type Searcher interface {
	Search(ctx context.Context, query string) []chat.Document
}

// EmailSender 邮件发送通道
// 返回值是展示给用户的发送结果文本
type EmailSender interface {
	Send(ctx context.Context, subject, body string, image []byte) (string, error)
}

// Notification 会话列表变更通知
type Notification struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id"`
	Title          string `json:"title,omitempty"`
}

// 会话变更通知类型
const (
	NotifyConversationCreated = "conversation_created"
	NotifyConversationRenamed = "conversation_renamed"
	NotifyConversationDeleted = "conversation_deleted"
)

// Pusher 会话变更推送接口
type Pusher interface {
	Push(n *Notification) error
}
