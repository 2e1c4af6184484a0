package memory

import (
	"context"
	"sort"
	"time"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage"
)

// blockedEitherWayLocked 判断两人之间是否存在任一方向的有效屏蔽
func (s *Store) blockedEitherWayLocked(a, b string, now time.Time) bool {
	return s.isBlockedLocked(a, b, now) || s.isBlockedLocked(b, a, now)
}

func (s *Store) isBlockedLocked(blockerID, blockedID string, now time.Time) bool {
	for _, b := range s.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID && b.ActiveAt(now) {
			return true
		}
	}
	return false
}

// CreateBlock 创建屏蔽记录。
func (s *Store) CreateBlock(_ context.Context, block *domain.BlockedUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if block.ID == "" {
		block.ID = newID()
	}
	block.CreatedAt = s.now()
	cp := *block
	s.blocks = append(s.blocks, &cp)
	return nil
}

// DeleteBlock 删除 blocker 对 blocked 的全部屏蔽记录。
func (s *Store) DeleteBlock(_ context.Context, blockerID, blockedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.blocks[:0]
	removed := 0
	for _, b := range s.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	s.blocks = kept
	if removed == 0 {
		return storage.ErrBlockNotFound
	}
	return nil
}

// IsBlocked 判断 blocker 当前是否屏蔽了 blocked。
func (s *Store) IsBlocked(_ context.Context, blockerID, blockedID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isBlockedLocked(blockerID, blockedID, s.now()), nil
}

// ListBlocks 列出 blocker 当前生效的屏蔽记录。
func (s *Store) ListBlocks(_ context.Context, blockerID string) ([]domain.BlockedUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]domain.BlockedUser, 0)
	for _, b := range s.blocks {
		if b.BlockerID == blockerID && b.ActiveAt(now) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteExpiredBlocks 删除在 before 之前到期的屏蔽记录。
func (s *Store) DeleteExpiredBlocks(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.blocks[:0]
	removed := 0
	for _, b := range s.blocks {
		if b.ExpiresAt != nil && !b.ExpiresAt.After(before) {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	s.blocks = kept
	return removed, nil
}

// ========== Report Repository ==========

// CreateReport 创建举报。
func (s *Store) CreateReport(_ context.Context, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		report.ID = newID()
	}
	if report.Status == "" {
		report.Status = domain.ReportPending
	}
	now := s.now()
	report.CreatedAt = now
	report.UpdatedAt = now
	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

// GetReport 获取举报。
func (s *Store) GetReport(_ context.Context, id string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, storage.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

// UpdateReport 更新举报。
func (s *Store) UpdateReport(_ context.Context, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[report.ID]; !ok {
		return storage.ErrReportNotFound
	}
	report.UpdatedAt = s.now()
	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

// ListReports 列出举报，按时间倒序。
func (s *Store) ListReports(_ context.Context, status *domain.ReportStatus, limit int) ([]domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Report, 0)
	for _, r := range s.reports {
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
