package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusdate/backend/internal/cache"
	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage"
)

const (
	dashboardCacheKey = "dashboard"
	dashboardTTL      = 30 * time.Second
)

// auditRecorder 写入管理员审计日志，失败只记录日志
type auditRecorder struct {
	store  storage.ModerationRepository
	logger *zap.Logger
}

func (a *auditRecorder) record(ctx context.Context, adminID, action, targetType, targetID, details string) {
	entry := &domain.AdminAuditLog{
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}
	if err := a.store.CreateAuditLog(ctx, entry); err != nil {
		a.logger.Error("write audit log failed",
			zap.String("adminID", adminID),
			zap.String("action", action),
			zap.String("targetID", targetID),
			zap.Error(err))
	}
}

// AdminService 管理服务
type AdminService struct {
	store  storage.Store
	audit  *auditRecorder
	stats  *cache.LocalCache[*domain.DashboardStats]
	logger *zap.Logger
	now    func() time.Time
}

// NewAdminService 创建管理服务
func NewAdminService(store storage.Store, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		store:  store,
		audit:  &auditRecorder{store: store, logger: logger},
		stats:  cache.NewLocalCache[*domain.DashboardStats](1, dashboardTTL),
		logger: logger,
		now:    time.Now,
	}
}

// Close 停止缓存清理
func (s *AdminService) Close() {
	s.stats.Close()
}

// Dashboard 管理后台概览（缓存 30 秒）
func (s *AdminService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	if stats, ok := s.stats.Get(dashboardCacheKey); ok {
		return stats, nil
	}
	stats, err := s.store.GetDashboardStats(ctx)
	if err != nil {
		return nil, err
	}
	s.stats.Set(dashboardCacheKey, stats, 0)
	return stats, nil
}

// ListUsersOutput 列出用户的输出结果
type ListUsersOutput struct {
	Users      []domain.User `json:"users"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// ListUsers 列出用户
func (s *AdminService) ListUsers(ctx context.Context, filter domain.UserFilter) (*ListUsersOutput, error) {
	filter.Normalize()
	users, total, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListUsersOutput{
		Users:      users,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: (total + filter.PageSize - 1) / filter.PageSize,
	}, nil
}

// GetUser 获取用户详情
func (s *AdminService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// SetUserActive 启用或停用用户
func (s *AdminService) SetUserActive(ctx context.Context, operatorID, userID string, active bool) (*domain.User, error) {
	if userID == operatorID {
		return nil, ErrCannotModifySelf
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	operator, err := s.store.GetUserByID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	// 只有超级管理员能修改超级管理员
	if user.IsSuper() && !operator.IsSuper() {
		return nil, ErrCannotModifySuper
	}

	user.IsActive = active
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	action := domain.AuditDeactivateUser
	if active {
		action = domain.AuditActivateUser
	}
	s.audit.record(ctx, operatorID, action, "user", userID, "")
	return user, nil
}

// ListVerifications 按状态列出认证申请
func (s *AdminService) ListVerifications(ctx context.Context, status *domain.VerificationStatus, limit int) ([]domain.Verification, error) {
	return s.store.ListVerifications(ctx, status, clampLimit(limit))
}

// ListMessageLogs 按标记/审核状态列出消息日志
func (s *AdminService) ListMessageLogs(ctx context.Context, filter domain.MessageLogFilter) ([]domain.MessageLog, error) {
	filter.Limit = clampLimit(filter.Limit)
	return s.store.ListMessageLogs(ctx, filter)
}

// FlagMessage 标记可疑消息
func (s *AdminService) FlagMessage(ctx context.Context, adminID, logID, reason string) (*domain.MessageLog, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrFlagReasonRequired
	}
	entry, err := s.store.GetMessageLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	entry.Flagged = true
	entry.FlagReason = reason
	if err := s.store.UpdateMessageLog(ctx, entry); err != nil {
		return nil, err
	}
	s.stats.Delete(dashboardCacheKey)
	s.audit.record(ctx, adminID, domain.AuditFlagMessage, "message_log", logID, reason)
	return entry, nil
}

// ReviewMessage 将消息标记为已审核
func (s *AdminService) ReviewMessage(ctx context.Context, adminID, logID string) (*domain.MessageLog, error) {
	entry, err := s.store.GetMessageLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	entry.Reviewed = true
	entry.ReviewedBy = &adminID
	entry.ReviewedAt = &now
	if err := s.store.UpdateMessageLog(ctx, entry); err != nil {
		return nil, err
	}
	s.stats.Delete(dashboardCacheKey)
	s.audit.record(ctx, adminID, domain.AuditReviewMessage, "message_log", logID, "")
	return entry, nil
}

// ListReports 按状态列出举报
func (s *AdminService) ListReports(ctx context.Context, status *domain.ReportStatus, limit int) ([]domain.Report, error) {
	return s.store.ListReports(ctx, status, clampLimit(limit))
}

// UpdateReportStatus 更新举报处理状态
func (s *AdminService) UpdateReportStatus(ctx context.Context, adminID, reportID string, status domain.ReportStatus) (*domain.Report, error) {
	switch status {
	case domain.ReportPending, domain.ReportReviewed, domain.ReportResolved, domain.ReportDismissed:
	default:
		return nil, ErrInvalidReportStatus
	}
	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	report.Status = status
	if err := s.store.UpdateReport(ctx, report); err != nil {
		return nil, err
	}
	s.stats.Delete(dashboardCacheKey)
	s.audit.record(ctx, adminID, domain.AuditUpdateReport, "report", reportID, string(status))
	return report, nil
}

// ListAuditLogs 最近的审计记录
func (s *AdminService) ListAuditLogs(ctx context.Context, limit int) ([]domain.AdminAuditLog, error) {
	return s.store.ListAuditLogs(ctx, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
