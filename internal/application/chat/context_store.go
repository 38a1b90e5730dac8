package chat

import (
	"sync"

	"github.com/watira/backend/internal/domain/chat"
)

// ContextStore 会话软状态仓库
// 借出/归还模型保证同一会话的回合串行更新：
// Checkout 持有该会话的锁并返回深拷贝，Commit/Release 归还锁
type ContextStore struct {
	mu      sync.Mutex
	entries map[int64]*contextEntry
}

type contextEntry struct {
	mu  sync.Mutex
	ctx *chat.ConversationContext
}

// Lease 借出的会话上下文
// Context 是深拷贝，修改后通过 Commit 写回
type Lease struct {
	entry   *contextEntry
	Context *chat.ConversationContext
}

// Commit 写回修改后的上下文并归还锁
func (l *Lease) Commit() {
	l.entry.ctx = l.Context
	l.entry.mu.Unlock()
}

// Release 放弃修改并归还锁
func (l *Lease) Release() {
	l.entry.mu.Unlock()
}

// NewContextStore 创建上下文仓库
func NewContextStore() *ContextStore {
	return &ContextStore{
		entries: make(map[int64]*contextEntry),
	}
}

// Checkout 借出会话上下文
// 同一会话的并发借出会阻塞，直到持有方 Commit 或 Release
func (s *ContextStore) Checkout(conversationID int64) *Lease {
	s.mu.Lock()
	e, ok := s.entries[conversationID]
	if !ok {
		e = &contextEntry{ctx: &chat.ConversationContext{}}
		s.entries[conversationID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	return &Lease{entry: e, Context: e.ctx.Clone()}
}

// Delete 删除会话的软状态
// 已借出的 Lease 不受影响，归还时写入被移除的条目即自然丢弃
func (s *ContextStore) Delete(conversationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, conversationID)
}
