package httptransport

import (
	"time"

	"github.com/gin-gonic/gin"

	"campusdate/backend/internal/middleware"
)

type sendRequestRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Content     string `json:"content"`
}

type rejectResponse struct {
	BlockedUntil *time.Time `json:"blockedUntil"`
	Cooldown     string     `json:"cooldown"`
}

// sendRequest 向尚未建立会话的用户发送消息请求
// @Summary 发送消息请求
// @Tags MessageRequests
// @Accept json
// @Produce json
// @Success 201 {object} Response
// @Failure 403 {object} Response "被对方屏蔽或处于冷却期"
// @Failure 409 {object} Response "已有会话或待处理请求"
// @Router /api/v1/message-requests [post]
func (h *Handler) sendRequest(c *gin.Context) {
	var req sendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	err := h.requests.SendRequest(c.Request.Context(), middleware.UserID(c), req.RecipientID, req.Content)
	h.recordRequest("send", err)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Created(c, gin.H{"recipientId": req.RecipientID})
}

// listPending 当前用户收到的待处理请求
func (h *Handler) listPending(c *gin.Context) {
	pending, err := h.requests.ListPending(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": pending, "count": len(pending)})
}

// acceptRequest 接受请求并返回会话ID
// @Router /api/v1/message-requests/{id}/accept [post]
func (h *Handler) acceptRequest(c *gin.Context) {
	conversationID, err := h.requests.AcceptRequest(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	h.recordRequest("accept", err)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"conversationId": conversationID})
}

// rejectRequest 拒绝请求，返回冷却截止时间
// @Router /api/v1/message-requests/{id}/reject [post]
func (h *Handler) rejectRequest(c *gin.Context) {
	outcome, err := h.requests.RejectRequest(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	h.recordRequest("reject", err)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, rejectResponse{
		BlockedUntil: outcome.BlockedUntil,
		Cooldown:     outcome.CooldownMessage(),
	})
}

func (h *Handler) recordRequest(action string, err error) {
	if h.metrics != nil {
		h.metrics.RecordMessageRequest(action, err)
	}
}
