package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

// activeBlock 当前生效的屏蔽条件
func activeBlock(tx *gorm.DB, blockerID, blockedID string, now time.Time) *gorm.DB {
	return tx.Model(&domain.BlockedUser{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Where("expires_at IS NULL OR expires_at > ?", now)
}

// blockedEitherWay 判断两人之间是否存在任一方向的有效屏蔽
func blockedEitherWay(tx *gorm.DB, a, b string, now time.Time) (bool, error) {
	var count int64
	err := tx.Model(&domain.BlockedUser{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&count).Error
	return count > 0, err
}

// CreateBlock 创建屏蔽记录
func (s *Store) CreateBlock(ctx context.Context, block *domain.BlockedUser) error {
	if block.ID == "" {
		block.ID = newID()
	}
	block.CreatedAt = s.now()
	return s.db.WithContext(ctx).Create(block).Error
}

// DeleteBlock 删除 blocker 对 blocked 的全部屏蔽记录
func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	result := s.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&domain.BlockedUser{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrBlockNotFound
	}
	return nil
}

// IsBlocked 判断 blocker 当前是否屏蔽了 blocked
func (s *Store) IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var count int64
	err := activeBlock(s.db.WithContext(ctx), blockerID, blockedID, s.now()).Count(&count).Error
	return count > 0, err
}

// ActiveBlockExpiry 返回当前是否屏蔽以及屏蔽的最晚到期时间，永久屏蔽时到期时间为 nil
func (s *Store) ActiveBlockExpiry(ctx context.Context, blockerID, blockedID string) (bool, *time.Time, error) {
	var blocks []domain.BlockedUser
	err := activeBlock(s.db.WithContext(ctx), blockerID, blockedID, s.now()).
		Select("expires_at").Find(&blocks).Error
	if err != nil || len(blocks) == 0 {
		return false, nil, err
	}

	var latest *time.Time
	for _, b := range blocks {
		if b.ExpiresAt == nil {
			return true, nil, nil
		}
		if latest == nil || b.ExpiresAt.After(*latest) {
			latest = b.ExpiresAt
		}
	}
	return true, latest, nil
}

// ListBlocks 列出 blocker 当前生效的屏蔽记录
func (s *Store) ListBlocks(ctx context.Context, blockerID string) ([]domain.BlockedUser, error) {
	blocks := make([]domain.BlockedUser, 0)
	err := s.db.WithContext(ctx).
		Where("blocker_id = ?", blockerID).
		Where("expires_at IS NULL OR expires_at > ?", s.now()).
		Order("created_at DESC").
		Find(&blocks).Error
	return blocks, err
}

// DeleteExpiredBlocks 删除在 before 之前到期的屏蔽记录
func (s *Store) DeleteExpiredBlocks(ctx context.Context, before time.Time) (int, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", before).
		Delete(&domain.BlockedUser{})
	return int(result.RowsAffected), result.Error
}

// ========== Report Repository ==========

// CreateReport 创建举报
func (s *Store) CreateReport(ctx context.Context, report *domain.Report) error {
	if report.ID == "" {
		report.ID = newID()
	}
	if report.Status == "" {
		report.Status = domain.ReportPending
	}
	now := s.now()
	report.CreatedAt = now
	report.UpdatedAt = now
	return s.db.WithContext(ctx).Create(report).Error
}

// GetReport 获取举报
func (s *Store) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	var report domain.Report
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, mapNotFound(err, storage.ErrReportNotFound)
	}
	return &report, nil
}

// UpdateReport 更新举报
func (s *Store) UpdateReport(ctx context.Context, report *domain.Report) error {
	report.UpdatedAt = s.now()
	result := s.db.WithContext(ctx).Model(report).Select("*").Omit("created_at").Updates(report)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrReportNotFound
	}
	return nil
}

// ListReports 列出举报，按时间倒序
func (s *Store) ListReports(ctx context.Context, status *domain.ReportStatus, limit int) ([]domain.Report, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	reports := make([]domain.Report, 0)
	err := query.Find(&reports).Error
	return reports, err
}

// ========== Verification Repository ==========

// CreateVerification 提交认证申请，每个用户同时只能有一条待审核记录
func (s *Store) CreateVerification(ctx context.Context, v *domain.Verification) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := tx.Model(&domain.Verification{}).
			Where("user_id = ? AND status = ?", v.UserID, domain.VerificationPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return storage.ErrVerificationPending
		}

		if v.ID == "" {
			v.ID = newID()
		}
		v.Status = domain.VerificationPending
		now := s.now()
		v.CreatedAt = now
		v.UpdatedAt = now
		return tx.Create(v).Error
	})
}

// GetVerification 获取认证申请
func (s *Store) GetVerification(ctx context.Context, id string) (*domain.Verification, error) {
	var v domain.Verification
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, mapNotFound(err, storage.ErrVerificationNotFound)
	}
	return &v, nil
}

// UpdateVerification 更新认证申请
func (s *Store) UpdateVerification(ctx context.Context, v *domain.Verification) error {
	v.UpdatedAt = s.now()
	result := s.db.WithContext(ctx).Model(v).Select("*").Omit("created_at").Updates(v)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrVerificationNotFound
	}

	s.publish(ctx, realtime.NewEvent(realtime.TableUserVerifications, realtime.ActionUpdate, v.ID, v, v.UserID))
	return nil
}

// ListVerifications 列出认证申请，按提交时间倒序
func (s *Store) ListVerifications(ctx context.Context, status *domain.VerificationStatus, limit int) ([]domain.Verification, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	list := make([]domain.Verification, 0)
	err := query.Find(&list).Error
	return list, err
}

// ListVerificationsByUser 列出用户的认证申请
func (s *Store) ListVerificationsByUser(ctx context.Context, userID string) ([]domain.Verification, error) {
	list := make([]domain.Verification, 0)
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// ========== Moderation Repository ==========

// CreateMessageLog 写入审核日志
func (s *Store) CreateMessageLog(ctx context.Context, log *domain.MessageLog) error {
	if log.ID == "" {
		log.ID = newID()
	}
	log.CreatedAt = s.now()
	return s.db.WithContext(ctx).Create(log).Error
}

// GetMessageLog 获取审核日志
func (s *Store) GetMessageLog(ctx context.Context, id string) (*domain.MessageLog, error) {
	var log domain.MessageLog
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&log).Error; err != nil {
		return nil, mapNotFound(err, storage.ErrMessageLogNotFound)
	}
	return &log, nil
}

// UpdateMessageLog 更新审核日志
func (s *Store) UpdateMessageLog(ctx context.Context, log *domain.MessageLog) error {
	result := s.db.WithContext(ctx).Model(log).Select("*").Omit("created_at").Updates(log)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrMessageLogNotFound
	}
	return nil
}

// ListMessageLogs 列出审核日志，按时间倒序
func (s *Store) ListMessageLogs(ctx context.Context, filter domain.MessageLogFilter) ([]domain.MessageLog, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if filter.MessageID != "" {
		query = query.Where("message_id = ?", filter.MessageID)
	}
	if filter.Flagged != nil {
		query = query.Where("flagged = ?", *filter.Flagged)
	}
	if filter.Reviewed != nil {
		query = query.Where("reviewed = ?", *filter.Reviewed)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	logs := make([]domain.MessageLog, 0)
	err := query.Find(&logs).Error
	return logs, err
}

// CreateAuditLog 写入管理员审计日志
func (s *Store) CreateAuditLog(ctx context.Context, entry *domain.AdminAuditLog) error {
	if entry.ID == "" {
		entry.ID = newID()
	}
	entry.CreatedAt = s.now()
	return s.db.WithContext(ctx).Create(entry).Error
}

// ListAuditLogs 列出审计日志，最新的在前
func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AdminAuditLog, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	logs := make([]domain.AdminAuditLog, 0)
	err := query.Find(&logs).Error
	return logs, err
}
