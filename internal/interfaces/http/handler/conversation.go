package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appchat "github.com/watira/backend/internal/application/chat"
	"github.com/watira/backend/internal/domain/chat"
	"github.com/watira/backend/internal/interfaces/http/response"
)

// ConversationHandler 会话管理处理器
type ConversationHandler struct {
	service *appchat.Service
}

// NewConversationHandler 创建会话管理处理器
func NewConversationHandler(service *appchat.Service) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// RenameRequest 重命名请求
type RenameRequest struct {
	Title string `json:"title" binding:"required"`
}

// List 返回会话列表
func (h *ConversationHandler) List(c *gin.Context) {
	conversations, err := h.service.ListConversations()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 200101, "failed to list conversations")
		return
	}
	response.Success(c, conversations)
}

// Messages 返回会话的全部消息
func (h *ConversationHandler) Messages(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	messages, err := h.service.ListMessages(id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 200102, "failed to list messages")
		return
	}
	response.Success(c, messages)
}

// Rename 重命名会话
func (h *ConversationHandler) Rename(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 200103, "invalid request body")
		return
	}

	if err := h.service.RenameConversation(id, req.Title); err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			response.Error(c, http.StatusNotFound, 200104, "conversation not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, 200105, "failed to rename conversation")
		return
	}
	response.Success(c, nil)
}

// Delete 删除会话
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteConversation(id); err != nil {
		response.Error(c, http.StatusInternalServerError, 200106, "failed to delete conversation")
		return
	}
	response.Success(c, nil)
}

// parseID 解析路径中的会话 ID
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, 200100, "invalid conversation id")
		return 0, false
	}
	return id, true
}
