package httptransport

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/middleware"
	"campusdate/backend/internal/monitoring"
	"campusdate/backend/internal/service"
)

// AdminHandler 管理API处理器
type AdminHandler struct {
	adminService  *service.AdminService
	verifications *service.VerificationService
	monitor       *monitoring.HealthChecker
	log           *zap.Logger
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(adminService *service.AdminService, verifications *service.VerificationService, monitor *monitoring.HealthChecker, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{
		adminService:  adminService,
		verifications: verifications,
		monitor:       monitor,
		log:           log,
	}
}

type setActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type reportStatusRequest struct {
	Status domain.ReportStatus `json:"status" binding:"required"`
}

// Dashboard 后台概览统计
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, stats)
}

// ListUsers godoc
// @Summary 获取用户列表
// @Description 获取系统中的用户列表（需要管理员权限）
// @Tags Admin
// @Produce json
// @Param page query int false "页码" default(1)
// @Param pageSize query int false "每页数量" default(20)
// @Param search query string false "搜索关键词（邮箱/学校）"
// @Param role query string false "角色过滤（user/admin/super）"
// @Param verified query bool false "认证状态过滤"
// @Success 200 {object} service.ListUsersOutput
// @Failure 403 {object} Response
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	filter := domain.UserFilter{
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if r := c.Query("role"); r != "" {
		role := domain.UserRole(r)
		if !role.Valid() {
			BadRequest(c, MsgInvalidQuery)
			return
		}
		filter.Role = &role
	}
	verified, ok := queryBool(c, "verified")
	if !ok {
		BadRequest(c, MsgInvalidQuery)
		return
	}
	filter.IsVerified = verified

	result, err := h.adminService.ListUsers(c.Request.Context(), filter)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, result)
}

// GetUser 获取用户详情
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.adminService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, user)
}

// SetUserActive 启用或禁用用户
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	user, err := h.adminService.SetUserActive(c.Request.Context(), middleware.UserID(c), c.Param("id"), *req.IsActive)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, user)
}

// ListVerifications 认证申请列表，可按状态过滤
func (h *AdminHandler) ListVerifications(c *gin.Context) {
	var status *domain.VerificationStatus
	if s := c.Query("status"); s != "" {
		v := domain.VerificationStatus(s)
		status = &v
	}

	items, err := h.adminService.ListVerifications(c.Request.Context(), status, queryInt(c, "limit", 0))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": items, "count": len(items)})
}

// ApproveVerification 通过认证
func (h *AdminHandler) ApproveVerification(c *gin.Context) {
	v, err := h.verifications.Approve(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, v)
}

// RejectVerification 驳回认证
func (h *AdminHandler) RejectVerification(c *gin.Context) {
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	v, err := h.verifications.Reject(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Reason)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, v)
}

// ListMessageLogs 消息审核日志
// @Param flagged query bool false "是否已标记"
// @Param reviewed query bool false "是否已审核"
// @Router /api/v1/admin/message-logs [get]
func (h *AdminHandler) ListMessageLogs(c *gin.Context) {
	flagged, ok := queryBool(c, "flagged")
	if !ok {
		BadRequest(c, MsgInvalidQuery)
		return
	}
	reviewed, ok := queryBool(c, "reviewed")
	if !ok {
		BadRequest(c, MsgInvalidQuery)
		return
	}

	logs, err := h.adminService.ListMessageLogs(c.Request.Context(), domain.MessageLogFilter{
		Flagged:  flagged,
		Reviewed: reviewed,
		Limit:    queryInt(c, "limit", 0),
	})
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": logs, "count": len(logs)})
}

// FlagMessage 标记消息
func (h *AdminHandler) FlagMessage(c *gin.Context) {
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	entry, err := h.adminService.FlagMessage(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Reason)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, entry)
}

// ReviewMessage 标记消息已审核
func (h *AdminHandler) ReviewMessage(c *gin.Context) {
	entry, err := h.adminService.ReviewMessage(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, entry)
}

// ListReports 举报列表
func (h *AdminHandler) ListReports(c *gin.Context) {
	var status *domain.ReportStatus
	if s := c.Query("status"); s != "" {
		v := domain.ReportStatus(s)
		status = &v
	}

	reports, err := h.adminService.ListReports(c.Request.Context(), status, queryInt(c, "limit", 0))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": reports, "count": len(reports)})
}

// UpdateReport 更新举报状态
func (h *AdminHandler) UpdateReport(c *gin.Context) {
	var req reportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	report, err := h.adminService.UpdateReportStatus(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, report)
}

// ListAuditLogs 审计日志
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	logs, err := h.adminService.ListAuditLogs(c.Request.Context(), queryInt(c, "limit", 0))
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	Success(c, gin.H{"items": logs, "count": len(logs)})
}

// SystemHealth 详细健康报告
func (h *AdminHandler) SystemHealth(c *gin.Context) {
	if h.monitor == nil {
		Success(c, gin.H{"status": monitoring.HealthStatusHealthy})
		return
	}
	Success(c, h.monitor.CheckHealth(c.Request.Context()))
}
