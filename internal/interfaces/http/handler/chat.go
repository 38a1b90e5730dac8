package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	appchat "github.com/watira/backend/internal/application/chat"
	"github.com/watira/backend/internal/domain/chat"
	"github.com/watira/backend/internal/domain/events"
	"github.com/watira/backend/internal/infrastructure/config"
	"github.com/watira/backend/internal/infrastructure/log"
	"github.com/watira/backend/internal/interfaces/http/response"
)

// ChatHandler 会话回合处理器
type ChatHandler struct {
	service   *appchat.Service
	queue     events.Queue
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewChatHandler 创建会话回合处理器
func NewChatHandler(service *appchat.Service, queue events.Queue, cfg *config.ServerConfig) *ChatHandler {
	heartbeat := time.Duration(cfg.StreamHeartbeatSeconds) * time.Second
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}

	return &ChatHandler{
		service:   service,
		queue:     queue,
		heartbeat: heartbeat,
		logger:    log.NewModuleLogger("http", "chat_handler"),
	}
}

// ChatRequest 回合提交请求
type ChatRequest struct {
	Query          string `json:"query"`
	ConversationID int64  `json:"conversation_id"`
}

// Submit 提交一个会话回合
// 回合结果通过事件流推送，此接口只确认受理
func (h *ChatHandler) Submit(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 200001, "invalid request body")
		return
	}

	// 回合一旦受理就执行到底，不随请求连接断开而取消
	cid, err := h.service.SubmitTurn(context.WithoutCancel(c.Request.Context()), req.ConversationID, req.Query)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyQuery) {
			response.Error(c, http.StatusBadRequest, 200002, "empty query")
			return
		}
		h.logger.Error("Turn submission failed", "error", err)
		response.Error(c, http.StatusInternalServerError, 200003, "failed to process turn")
		return
	}

	response.Success(c, gin.H{"conversation_id": cid})
}

// Stream 事件直播流（SSE）
// 空闲超过心跳间隔时发送注释帧保活
func (h *ChatHandler) Stream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, 200004, "streaming unsupported")
		return
	}

	ctx := c.Request.Context()
	h.logger.Info("Stream consumer connected", "remote", c.ClientIP())

	for {
		if ctx.Err() != nil {
			h.logger.Info("Stream consumer disconnected", "remote", c.ClientIP())
			return
		}

		ev, ok := h.queue.Dequeue(ctx, h.heartbeat)
		if !ok {
			if ctx.Err() != nil {
				h.logger.Info("Stream consumer disconnected", "remote", c.ClientIP())
				return
			}
			// 心跳帧
			fmt.Fprint(c.Writer, "data: :\n\n")
			flusher.Flush()
			continue
		}

		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("Failed to marshal event", "error", err)
			continue
		}

		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		flusher.Flush()
	}
}
