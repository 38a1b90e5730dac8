package chat

import "errors"

// 领域错误
var (
	// ErrConversationNotFound 会话不存在
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrEmptyQuery 空查询不构成一个回合
	ErrEmptyQuery = errors.New("empty query")
	// ErrNoPriorContext 按指代发送邮件时没有可引用的历史输出
	// 这是一个已定义的用户可见结果，不应作为硬失败向上传播
	ErrNoPriorContext = errors.New("no recent content to reference")
)
