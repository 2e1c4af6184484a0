package memory

import (
	"context"
	"sort"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

// ========== Verification Repository ==========

// CreateVerification 提交认证申请，每个用户同时只能有一条待审核记录。
func (s *Store) CreateVerification(_ context.Context, v *domain.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.verifications {
		if existing.UserID == v.UserID && existing.Status == domain.VerificationPending {
			return storage.ErrVerificationPending
		}
	}
	if v.ID == "" {
		v.ID = newID()
	}
	v.Status = domain.VerificationPending
	now := s.now()
	v.CreatedAt = now
	v.UpdatedAt = now
	cp := *v
	s.verifications[v.ID] = &cp
	return nil
}

// GetVerification 获取认证申请。
func (s *Store) GetVerification(_ context.Context, id string) (*domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.verifications[id]
	if !ok {
		return nil, storage.ErrVerificationNotFound
	}
	cp := *v
	return &cp, nil
}

// UpdateVerification 更新认证申请。
func (s *Store) UpdateVerification(ctx context.Context, v *domain.Verification) error {
	s.mu.Lock()
	if _, ok := s.verifications[v.ID]; !ok {
		s.mu.Unlock()
		return storage.ErrVerificationNotFound
	}
	v.UpdatedAt = s.now()
	cp := *v
	s.verifications[v.ID] = &cp
	s.mu.Unlock()

	s.publish(ctx, realtime.NewEvent(realtime.TableUserVerifications, realtime.ActionUpdate, cp.ID, cp, cp.UserID))
	return nil
}

// ListVerifications 列出认证申请，按提交时间倒序。
func (s *Store) ListVerifications(_ context.Context, status *domain.VerificationStatus, limit int) ([]domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Verification, 0)
	for _, v := range s.verifications {
		if status != nil && v.Status != *status {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListVerificationsByUser 列出用户的认证申请。
func (s *Store) ListVerificationsByUser(_ context.Context, userID string) ([]domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Verification, 0)
	for _, v := range s.verifications {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ========== Moderation Repository ==========

// CreateMessageLog 写入审核日志。
func (s *Store) CreateMessageLog(_ context.Context, log *domain.MessageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.ID == "" {
		log.ID = newID()
	}
	log.CreatedAt = s.now()
	cp := *log
	s.messageLogs[log.ID] = &cp
	return nil
}

// GetMessageLog 获取审核日志。
func (s *Store) GetMessageLog(_ context.Context, id string) (*domain.MessageLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.messageLogs[id]
	if !ok {
		return nil, storage.ErrMessageLogNotFound
	}
	cp := *l
	return &cp, nil
}

// UpdateMessageLog 更新审核日志。
func (s *Store) UpdateMessageLog(_ context.Context, log *domain.MessageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messageLogs[log.ID]; !ok {
		return storage.ErrMessageLogNotFound
	}
	cp := *log
	s.messageLogs[log.ID] = &cp
	return nil
}

// ListMessageLogs 列出审核日志，按时间倒序。
func (s *Store) ListMessageLogs(_ context.Context, filter domain.MessageLogFilter) ([]domain.MessageLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MessageLog, 0)
	for _, l := range s.messageLogs {
		if filter.MessageID != "" && l.MessageID != filter.MessageID {
			continue
		}
		if filter.Flagged != nil && l.Flagged != *filter.Flagged {
			continue
		}
		if filter.Reviewed != nil && l.Reviewed != *filter.Reviewed {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CreateAuditLog 写入管理员审计日志。
func (s *Store) CreateAuditLog(_ context.Context, entry *domain.AdminAuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = newID()
	}
	entry.CreatedAt = s.now()
	cp := *entry
	s.auditLogs = append(s.auditLogs, &cp)
	return nil
}

// ListAuditLogs 列出审计日志，最新的在前。
func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AdminAuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.auditLogs)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]domain.AdminAuditLog, 0, n)
	for i := len(s.auditLogs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, *s.auditLogs[i])
	}
	return out, nil
}
