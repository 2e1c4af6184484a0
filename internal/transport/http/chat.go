package httptransport

import (
	"github.com/gin-gonic/gin"

	"campusdate/backend/internal/middleware"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) listConversations(c *gin.Context) {
	items, err := h.chat.ListConversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) listMessages(c *gin.Context) {
	messages, err := h.chat.ListMessages(c.Request.Context(), c.Param("id"), middleware.UserID(c), queryInt(c, "limit", 0))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": messages, "count": len(messages)})
}

// sendMessage 在会话中发送消息
// @Summary 发送消息
// @Tags Conversations
// @Accept json
// @Produce json
// @Param id path string true "会话ID"
// @Success 201 {object} domain.Message
// @Failure 403 {object} Response "非参与者或已屏蔽"
// @Router /api/v1/conversations/{id}/messages [post]
func (h *Handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	msg, err := h.chat.SendMessage(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Content)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Created(c, msg)
}

func (h *Handler) markRead(c *gin.Context) {
	n, err := h.chat.MarkRead(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"marked": n})
}
