// Package chat 实现会话回合编排
// 回合流程：解析意图 -> 分发策略 -> 推送进度/结果事件 -> 持久化 -> 提交软状态
package chat

import (
	"context"
	"strings"

	"log/slog"

	"github.com/watira/backend/internal/application/visual"
	"github.com/watira/backend/internal/domain/chat"
	"github.com/watira/backend/internal/domain/events"
	"github.com/watira/backend/internal/infrastructure/log"
)

// ServiceConfig 回合编排配置
type ServiceConfig struct {
	// HistoryLimit 每回合注入模型的历史消息上限
	HistoryLimit int
}

// Service 会话应用服务（用例编排）
type Service struct {
	cfg       ServiceConfig
	convs     chat.ConversationRepository
	artifacts chat.ArtifactRepository
	contexts  *ContextStore
	planner   *Planner
	generator Generator
	searcher  Searcher
	pipeline  *visual.Pipeline
	emailer   EmailSender
	queue     events.Queue
	pusher    Pusher
	logger    *slog.Logger
}

// NewService 创建会话应用服务
func NewService(
	cfg ServiceConfig,
	convs chat.ConversationRepository,
	artifacts chat.ArtifactRepository,
	contexts *ContextStore,
	planner *Planner,
	generator Generator,
	searcher Searcher,
	pipeline *visual.Pipeline,
	emailer EmailSender,
	queue events.Queue,
	pusher Pusher,
) *Service {
	return &Service{
		cfg:       cfg,
		convs:     convs,
		artifacts: artifacts,
		contexts:  contexts,
		planner:   planner,
		generator: generator,
		searcher:  searcher,
		pipeline:  pipeline,
		emailer:   emailer,
		queue:     queue,
		pusher:    pusher,
		logger:    log.NewModuleLogger("chat", "service"),
	}
}

// SubmitTurn 处理一个会话回合
// conversationID 为 0 时创建新会话；返回回合所属的会话 ID
func (s *Service) SubmitTurn(ctx context.Context, conversationID int64, query string) (int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, chat.ErrEmptyQuery
	}

	cid := conversationID
	var history []*chat.Message

	if cid == 0 {
		newID, err := s.convs.Create(chat.DeriveTitle(query))
		if err != nil {
			return 0, err
		}
		cid = newID

		s.queue.Enqueue(events.NewSessionCreated(cid))
		s.notify(&Notification{Type: NotifyConversationCreated, ConversationID: cid, Title: chat.DeriveTitle(query)})
	} else {
		msgs, err := s.convs.ListRecentMessages(cid, s.cfg.HistoryLimit)
		if err != nil {
			return 0, err
		}
		history = msgs
	}

	// 用户消息写入失败是致命错误：没有落库的回合不继续执行
	if err := s.convs.AppendMessage(cid, chat.RoleUser, query); err != nil {
		return 0, err
	}

	lease := s.contexts.Checkout(cid)
	cctx := lease.Context

	intent := s.planner.Resolve(ctx, query, history, cctx)
	s.logger.Info("Turn intent resolved",
		"conversation_id", cid,
		"intent", intent.String(),
		"query", query,
	)

	final := s.dispatch(ctx, intent, cid, query, history, cctx)
	if final == "" {
		s.logger.Error("Strategy produced no response, using fallback", "intent", intent.String())
		final = fallbackResponse
	}

	// 模型消息落库成功才提交软状态，保证状态与持久化历史一致
	if err := s.convs.AppendMessage(cid, chat.RoleModel, final); err != nil {
		lease.Release()
		return cid, err
	}
	lease.Commit()

	return cid, nil
}

// dispatch 按意图分发策略
func (s *Service) dispatch(ctx context.Context, intent chat.Intent, cid int64, query string, history []*chat.Message, cctx *chat.ConversationContext) string {
	switch intent {
	case chat.IntentChitChat:
		return s.handleChitChat(ctx, cid, query, history, cctx)
	case chat.IntentTextAnswer, chat.IntentUnknown:
		return s.handleTextAnswer(ctx, cid, query, history, cctx)
	case chat.IntentVisualReport:
		return s.handleVisualReport(ctx, cid, query, history, cctx)
	case chat.IntentEmailImage:
		return s.handleEmailImage(ctx, cid, query, history, cctx)
	case chat.IntentEmailText:
		return s.handleEmailText(ctx, cid, query, history, cctx)
	case chat.IntentEmail:
		return s.handleEmail(ctx, cid, query, history, cctx)
	case chat.IntentVisualReportAndEmail:
		return s.handleVisualAndEmail(ctx, cid, query, history, cctx)
	default:
		return s.handleTextAnswer(ctx, cid, query, history, cctx)
	}
}

// ListConversations 按最近更新时间倒序返回会话列表
func (s *Service) ListConversations() ([]*chat.Conversation, error) {
	return s.convs.List()
}

// ListMessages 返回会话的全部消息
func (s *Service) ListMessages(conversationID int64) ([]*chat.Message, error) {
	return s.convs.ListMessages(conversationID)
}

// RenameConversation 重命名会话
func (s *Service) RenameConversation(conversationID int64, title string) error {
	if err := s.convs.Rename(conversationID, title); err != nil {
		return err
	}
	s.notify(&Notification{Type: NotifyConversationRenamed, ConversationID: conversationID, Title: title})
	return nil
}

// DeleteConversation 删除会话及其软状态
func (s *Service) DeleteConversation(conversationID int64) error {
	if err := s.convs.Delete(conversationID); err != nil {
		return err
	}
	s.contexts.Delete(conversationID)
	s.notify(&Notification{Type: NotifyConversationDeleted, ConversationID: conversationID})
	return nil
}

// notify 推送会话列表变更，失败只记日志不影响主流程
func (s *Service) notify(n *Notification) {
	if err := s.pusher.Push(n); err != nil {
		s.logger.Warn("Failed to push conversation notification", "type", n.Type, "error", err)
	}
}
