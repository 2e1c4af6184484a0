package httptransport

import (
	"github.com/gin-gonic/gin"

	"campusdate/backend/internal/middleware"
	"campusdate/backend/internal/service"
)

type blockRequest struct {
	UserID string `json:"userId" binding:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) blockUser(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	block, err := h.safety.BlockUser(c.Request.Context(), middleware.UserID(c), req.UserID, req.Reason)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Created(c, block)
}

func (h *Handler) unblockUser(c *gin.Context) {
	if err := h.safety.UnblockUser(c.Request.Context(), middleware.UserID(c), c.Param("userId")); err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, nil)
}

func (h *Handler) listBlocked(c *gin.Context) {
	blocks, err := h.safety.ListBlocked(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": blocks, "count": len(blocks)})
}

func (h *Handler) reportUser(c *gin.Context) {
	var req service.ReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	report, err := h.safety.ReportUser(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Created(c, report)
}

// submitVerification 提交身份认证材料
func (h *Handler) submitVerification(c *gin.Context) {
	var req service.SubmitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	v, err := h.verifications.Submit(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Created(c, v)
}

func (h *Handler) listMyVerifications(c *gin.Context) {
	items, err := h.verifications.ListMine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": items, "count": len(items)})
}
