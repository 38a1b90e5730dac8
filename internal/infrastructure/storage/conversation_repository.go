package storage

import (
	"database/sql"
	"fmt"
	"time"

	"log/slog"

	"github.com/watira/backend/internal/domain/chat"
	"github.com/watira/backend/internal/infrastructure/log"
)

// conversationRepository 会话 SQLite 仓储实现
type conversationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConversationRepository 创建会话仓储实例
func NewConversationRepository(db *sql.DB) chat.ConversationRepository {
	if err := initConversationTables(db); err != nil {
		// 初始化失败时记录错误但不阻止创建
		fmt.Printf("failed to init conversation tables: %v\n", err)
	}
	return &conversationRepository{
		db:     db,
		logger: log.NewModuleLogger("storage", "conversation_repository"),
	}
}

// initConversationTables 初始化会话与消息表
func initConversationTables(db *sql.DB) error {
	createConversationsSQL := `
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL DEFAULT 'New Conversation',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createConversationsSQL); err != nil {
		return fmt.Errorf("failed to create conversations table: %w", err)
	}

	// 删除会话时级联删除消息
	createMessagesSQL := `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createMessagesSQL); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}

	return nil
}

// Create 创建新会话
func (r *conversationRepository) Create(title string) (int64, error) {
	now := time.Now().UnixMilli()

	result, err := r.db.Exec(
		`INSERT INTO conversations (title, created_at, updated_at) VALUES (?, ?, ?)`,
		title, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get conversation id: %w", err)
	}

	return id, nil
}

// List 按最近更新时间倒序返回所有会话
func (r *conversationRepository) List() ([]*chat.Conversation, error) {
	rows, err := r.db.Query(`
		SELECT id, title, created_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*chat.Conversation
	for rows.Next() {
		var conv chat.Conversation
		var createdAt, updatedAt int64

		if err := rows.Scan(&conv.ID, &conv.Title, &createdAt, &updatedAt); err != nil {
			continue
		}

		conv.CreatedAt = time.UnixMilli(createdAt)
		conv.UpdatedAt = time.UnixMilli(updatedAt)
		conversations = append(conversations, &conv)
	}

	return conversations, nil
}

// Rename 更新会话标题与更新时间
func (r *conversationRepository) Rename(id int64, title string) error {
	result, err := r.db.Exec(
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return chat.ErrConversationNotFound
	}

	return nil
}

// Delete 删除会话，外键级联删除消息与制品
func (r *conversationRepository) Delete(id int64) error {
	if _, err := r.db.Exec(`DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// AppendMessage 追加消息并刷新会话更新时间（同一事务）
func (r *conversationRepository) AppendMessage(conversationID int64, role, content string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()

	if _, err := tx.Exec(
		`INSERT INTO messages (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		conversationID, role, content, now,
	); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now, conversationID,
	); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}

	return nil
}

// ListMessages 按时间正序返回会话全部消息
func (r *conversationRepository) ListMessages(conversationID int64) ([]*chat.Message, error) {
	rows, err := r.db.Query(`
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows), nil
}

// ListRecentMessages 返回最近 limit 条消息，翻转为时间正序
func (r *conversationRepository) ListRecentMessages(conversationID int64, limit int) ([]*chat.Message, error) {
	rows, err := r.db.Query(`
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	messages := scanMessages(rows)

	// 倒序查询结果翻转为正确的时间顺序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// scanMessages 扫描消息行
func scanMessages(rows *sql.Rows) []*chat.Message {
	var messages []*chat.Message
	for rows.Next() {
		var msg chat.Message
		var createdAt int64

		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &createdAt); err != nil {
			continue
		}

		msg.CreatedAt = time.UnixMilli(createdAt)
		messages = append(messages, &msg)
	}
	return messages
}

// 编译时检查接口实现
var _ chat.ConversationRepository = (*conversationRepository)(nil)
