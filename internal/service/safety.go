package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage"
)

// SafetyService 屏蔽与举报
type SafetyService struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewSafetyService 创建安全服务
func NewSafetyService(store storage.Store, logger *zap.Logger) *SafetyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SafetyService{store: store, logger: logger, now: time.Now}
}

// BlockUser 永久屏蔽用户，重复屏蔽直接返回已有记录
func (s *SafetyService) BlockUser(ctx context.Context, blockerID, blockedID, reason string) (*domain.BlockedUser, error) {
	if blockerID == blockedID {
		return nil, ErrSelfAction
	}
	if _, err := s.store.GetUserByID(ctx, blockedID); err != nil {
		return nil, err
	}

	existing, err := s.store.ListBlocks(ctx, blockerID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].BlockedID == blockedID && existing[i].ExpiresAt == nil {
			return &existing[i], nil
		}
	}

	block := &domain.BlockedUser{
		BlockerID: blockerID,
		BlockedID: blockedID,
		Reason:    strings.TrimSpace(reason),
	}
	if err := s.store.CreateBlock(ctx, block); err != nil {
		return nil, err
	}
	s.logger.Info("user blocked", zap.String("blockerID", blockerID), zap.String("blockedID", blockedID))
	return block, nil
}

// UnblockUser 解除屏蔽（包括拒绝请求产生的冷却期）
func (s *SafetyService) UnblockUser(ctx context.Context, blockerID, blockedID string) error {
	return s.store.DeleteBlock(ctx, blockerID, blockedID)
}

// IsBlockedEitherWay 判断两个用户之间是否存在任一方向的屏蔽
func (s *SafetyService) IsBlockedEitherWay(ctx context.Context, a, b string) (bool, error) {
	if a == b {
		return false, nil
	}
	return blockedEitherWay(ctx, s.store, a, b)
}

// ListBlocked 列出当前生效的屏蔽
func (s *SafetyService) ListBlocked(ctx context.Context, blockerID string) ([]domain.BlockedUser, error) {
	blocks, err := s.store.ListBlocks(ctx, blockerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := blocks[:0]
	for _, b := range blocks {
		if b.ActiveAt(now) {
			active = append(active, b)
		}
	}
	return active, nil
}

// ReportInput 举报参数
type ReportInput struct {
	ReportedUserID string `json:"reportedUserId" binding:"required"`
	Reason         string `json:"reason"`
	Details        string `json:"details"`
}

// ReportUser 举报用户
func (s *SafetyService) ReportUser(ctx context.Context, reporterID string, input ReportInput) (*domain.Report, error) {
	if reporterID == input.ReportedUserID {
		return nil, ErrSelfAction
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, domain.ErrReportReasonRequired
	}
	if _, err := s.store.GetUserByID(ctx, input.ReportedUserID); err != nil {
		return nil, err
	}

	report := &domain.Report{
		ReporterID: reporterID,
		ReportedID: input.ReportedUserID,
		Reason:     reason,
		Details:    strings.TrimSpace(input.Details),
		Status:     domain.ReportPending,
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	s.logger.Info("user reported",
		zap.String("reporterID", reporterID),
		zap.String("reportedID", input.ReportedUserID),
		zap.String("reason", reason))
	return report, nil
}
