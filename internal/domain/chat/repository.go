package chat

// ConversationRepository 会话/消息仓储接口
type ConversationRepository interface {
	// Create 创建新会话并返回 ID
	Create(title string) (int64, error)
	// List 按最近更新时间倒序返回所有会话
	List() ([]*Conversation, error)
	// Rename 更新会话标题
	Rename(id int64, title string) error
	// Delete 删除会话，级联删除其消息和制品
	Delete(id int64) error
	// AppendMessage 追加一条消息并刷新会话更新时间
	AppendMessage(conversationID int64, role, content string) error
	// ListMessages 按时间正序返回会话全部消息
	ListMessages(conversationID int64) ([]*Message, error)
	// ListRecentMessages 返回最近 limit 条消息，按时间正序
	ListRecentMessages(conversationID int64, limit int) ([]*Message, error)
}

// ArtifactRepository 制品仓储接口，兼作模糊制品缓存
type ArtifactRepository interface {
	// Save 保存制品并返回 ID
	Save(conversationID int64, requestQuery, kind, content string) (int64, error)
	// Find 模糊缓存查找：返回该会话中 request_query 包含 query 的最新制品
	// 未命中返回 (nil, nil)
	Find(conversationID int64, query string) (*Artifact, error)
	// FindByID 按 ID 精确查找，未找到返回 (nil, nil)
	FindByID(id int64) (*Artifact, error)
}
