// Package chat 定义会话领域模型
// 包含会话、消息、制品（artifact）以及会话软状态上下文
package chat

import (
	"strings"
	"time"
)

// 消息角色
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ResponseKind 回合输出类型
type ResponseKind string

const (
	// ResponseKindNone 尚无输出（新会话的初始状态）
	ResponseKindNone ResponseKind = ""
	// ResponseKindText 文本输出
	ResponseKindText ResponseKind = "text"
	// ResponseKindImage 图像输出
	ResponseKindImage ResponseKind = "image"
	// ResponseKindEmail 邮件输出
	ResponseKindEmail ResponseKind = "email"
)

// ArtifactKindImage 目前唯一的制品类型
const ArtifactKindImage = "image"

// Conversation 会话实体
type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message 会话消息
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Artifact 已生成的制品（当前为 data-URI 编码的图像）
// 制品一经创建不可变，缓存查找不会修改它
type Artifact struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	RequestQuery   string    `json:"requestQuery"`
	Kind           string    `json:"kind"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Document 检索到的文档片段
type Document struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// ConversationContext 会话软状态
// 用于解析后续指代（"把它发出去"、"画一下"）
// 进程重启后重置为空：持久化历史才是事实来源
type ConversationContext struct {
	LastQuery           string
	LastResponseKind    ResponseKind
	LastResponseContent string
	LastRawData         []Document
	LastArtifactIDs     []int64
}

// Clone 深拷贝上下文，借出/归还时避免共享可变切片
func (c *ConversationContext) Clone() *ConversationContext {
	clone := *c
	if c.LastRawData != nil {
		clone.LastRawData = make([]Document, len(c.LastRawData))
		copy(clone.LastRawData, c.LastRawData)
	}
	if c.LastArtifactIDs != nil {
		clone.LastArtifactIDs = make([]int64, len(c.LastArtifactIDs))
		copy(clone.LastArtifactIDs, c.LastArtifactIDs)
	}
	return &clone
}

// DeriveTitle 从首条查询派生会话标题（超过 50 个字符截断）
func DeriveTitle(firstQuery string) string {
	runes := []rune(strings.TrimSpace(firstQuery))
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return string(runes)
}

// IsDataURI 判断消息内容是否为 data-URI 编码的图像
func IsDataURI(content string) bool {
	return strings.HasPrefix(content, "data:image")
}
