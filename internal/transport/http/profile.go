package httptransport

import (
	"github.com/gin-gonic/gin"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/middleware"
	"campusdate/backend/internal/service"
)

// createProfile 注册引导：创建资料
func (h *Handler) createProfile(c *gin.Context) {
	var req service.CreateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	profile, err := h.profiles.CreateProfile(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Created(c, profile)
}

func (h *Handler) getMyProfile(c *gin.Context) {
	profile, err := h.profiles.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, profile)
}

// getProfile 查看他人资料，任一方向屏蔽时不可见
func (h *Handler) getProfile(c *gin.Context) {
	viewer := middleware.UserID(c)
	target := c.Param("userId")

	blocked, err := h.safety.IsBlockedEitherWay(c.Request.Context(), viewer, target)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	if blocked {
		Fail(c, h.log, service.ErrUserBlocked)
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), target)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, profile)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req domain.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, profile)
}

// discover 推荐列表
func (h *Handler) discover(c *gin.Context) {
	profiles, err := h.profiles.Discover(c.Request.Context(), middleware.UserID(c), queryInt(c, "limit", 0))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": profiles, "count": len(profiles)})
}

// swipe 喜欢或跳过
func (h *Handler) swipe(c *gin.Context) {
	var req service.SwipeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	result, err := h.matches.Swipe(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.Set(middleware.ContextMatched, result.Matched)
	Success(c, result)
}

func (h *Handler) listMatches(c *gin.Context) {
	matches, err := h.matches.ListMatches(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": matches, "count": len(matches)})
}
