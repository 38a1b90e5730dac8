// Package events 定义回合进度事件及事件队列契约
// 所有在途回合共享同一条有序队列，由直播流消费者排空
package events

import "github.com/google/uuid"

// Type 事件类型标识
type Type string

const (
	// TypeSessionCreated 新会话已创建
	TypeSessionCreated Type = "session_created"
	// TypeStatus 回合进度更新
	TypeStatus Type = "status"
	// TypeText 终态文本结果
	TypeText Type = "text"
	// TypeImage 终态图像结果
	TypeImage Type = "image"
)

// Event 推送到客户端的流事件
// 进度类事件不持久化，消费者断开期间未读到的事件直接丢失
type Event struct {
	ID             string `json:"id"`
	Type           Type   `json:"type"`
	Message        string `json:"message,omitempty"`
	Content        string `json:"content,omitempty"`
	ConversationID int64  `json:"conversation_id"`
}

// NewSessionCreated 创建会话建立事件
func NewSessionCreated(conversationID int64) Event {
	return Event{ID: uuid.New().String(), Type: TypeSessionCreated, ConversationID: conversationID}
}

// NewStatus 创建进度事件
func NewStatus(conversationID int64, message string) Event {
	return Event{ID: uuid.New().String(), Type: TypeStatus, Message: message, ConversationID: conversationID}
}

// NewText 创建终态文本事件
func NewText(conversationID int64, content string) Event {
	return Event{ID: uuid.New().String(), Type: TypeText, Content: content, ConversationID: conversationID}
}

// NewImage 创建终态图像事件
func NewImage(conversationID int64, content string) Event {
	return Event{ID: uuid.New().String(), Type: TypeImage, Content: content, ConversationID: conversationID}
}
