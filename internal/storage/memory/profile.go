package memory

import (
	"context"
	"sort"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

func copyProfile(p *domain.Profile) domain.Profile {
	cp := *p
	cp.LookingForGender = append([]domain.Gender(nil), p.LookingForGender...)
	cp.Interests = append([]string(nil), p.Interests...)
	cp.Photos = append([]string(nil), p.Photos...)
	return cp
}

// CreateProfile 创建用户资料。
func (s *Store) CreateProfile(_ context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[profile.UserID]; !ok {
		return storage.ErrUserNotFound
	}
	if _, exists := s.profiles[profile.UserID]; exists {
		return storage.ErrProfileExists
	}
	if profile.ID == "" {
		profile.ID = newID()
	}
	now := s.now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	cp := copyProfile(profile)
	s.profiles[profile.UserID] = &cp
	return nil
}

// GetProfileByUserID 获取用户资料。
func (s *Store) GetProfileByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, storage.ErrProfileNotFound
	}
	cp := copyProfile(p)
	return &cp, nil
}

// UpdateProfile 更新用户资料。
func (s *Store) UpdateProfile(_ context.Context, profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.UserID]
	if !ok {
		return storage.ErrProfileNotFound
	}
	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	profile.UpdatedAt = s.now()

	cp := copyProfile(profile)
	s.profiles[profile.UserID] = &cp
	return nil
}

// ListProfilesByUserIDs 批量获取资料，不存在的用户被忽略。
func (s *Store) ListProfilesByUserIDs(_ context.Context, userIDs []string) ([]domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Profile, 0, len(userIDs))
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			out = append(out, copyProfile(p))
		}
	}
	return out, nil
}

// ListDiscoverable 返回推荐列表，按资料创建时间倒序。
func (s *Store) ListDiscoverable(_ context.Context, userID string, limit int) ([]domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	viewer := s.profiles[userID]
	now := s.now()

	out := make([]domain.Profile, 0)
	for uid, p := range s.profiles {
		if uid == userID || !p.IsComplete {
			continue
		}
		if _, swiped := s.matches[userID+"|"+uid]; swiped {
			continue
		}
		if s.blockedEitherWayLocked(userID, uid, now) {
			continue
		}
		if viewer != nil && !viewer.Accepts(p.Gender) {
			continue
		}
		out = append(out, copyProfile(p))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ========== Match Repository ==========

// CreateMatch 记录一次滑动。
func (s *Store) CreateMatch(ctx context.Context, match *domain.Match) error {
	s.mu.Lock()
	key := match.UserID + "|" + match.MatchedUserID
	if _, exists := s.matches[key]; exists {
		s.mu.Unlock()
		return storage.ErrAlreadySwiped
	}
	if match.ID == "" {
		match.ID = newID()
	}
	match.CreatedAt = s.now()
	cp := *match
	s.matches[key] = &cp
	s.mu.Unlock()

	s.publish(ctx, realtime.NewEvent(realtime.TableMatches, realtime.ActionInsert, cp.ID, cp, cp.UserID, cp.MatchedUserID))
	return nil
}

// GetMatch 获取 userID 对 matchedUserID 的滑动记录。
func (s *Store) GetMatch(_ context.Context, userID, matchedUserID string) (*domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[userID+"|"+matchedUserID]
	if !ok {
		return nil, storage.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

// ListMutualMatches 返回互相喜欢的记录，按时间倒序。
func (s *Store) ListMutualMatches(_ context.Context, userID string) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Match, 0)
	for _, m := range s.matches {
		if m.UserID != userID || !m.IsLiked {
			continue
		}
		back, ok := s.matches[m.MatchedUserID+"|"+userID]
		if !ok || !back.IsLiked {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
