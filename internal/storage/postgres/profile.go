package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

// CreateProfile 创建用户资料
func (s *Store) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&domain.User{}).Where("id = ?", profile.UserID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return storage.ErrUserNotFound
	}
	if profile.ID == "" {
		profile.ID = newID()
	}

	err := db.Create(profile).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrProfileExists
	}
	return err
}

// GetProfileByUserID 获取用户资料
func (s *Store) GetProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, mapNotFound(err, storage.ErrProfileNotFound)
	}
	return &profile, nil
}

// UpdateProfile 更新用户资料
func (s *Store) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	result := s.db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ?", profile.UserID).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(profile)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrProfileNotFound
	}
	return nil
}

// ListProfilesByUserIDs 批量获取资料
func (s *Store) ListProfilesByUserIDs(ctx context.Context, userIDs []string) ([]domain.Profile, error) {
	profiles := make([]domain.Profile, 0, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}
	err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error
	return profiles, err
}

// ListDiscoverable 返回推荐列表
func (s *Store) ListDiscoverable(ctx context.Context, userID string, limit int) ([]domain.Profile, error) {
	db := s.db.WithContext(ctx)
	now := s.now()

	swiped := db.Model(&domain.Match{}).Select("matched_user_id").Where("user_id = ?", userID)
	blockedByMe := db.Model(&domain.BlockedUser{}).Select("blocked_id").
		Where("blocker_id = ? AND (expires_at IS NULL OR expires_at > ?)", userID, now)
	blockedMe := db.Model(&domain.BlockedUser{}).Select("blocker_id").
		Where("blocked_id = ? AND (expires_at IS NULL OR expires_at > ?)", userID, now)

	query := db.Model(&domain.Profile{}).
		Where("user_id <> ? AND is_complete = ?", userID, true).
		Where("user_id NOT IN (?)", swiped).
		Where("user_id NOT IN (?)", blockedByMe).
		Where("user_id NOT IN (?)", blockedMe)

	viewer, err := s.GetProfileByUserID(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrProfileNotFound) {
		return nil, err
	}
	if viewer != nil && len(viewer.LookingForGender) > 0 {
		query = query.Where("gender IN ?", viewer.LookingForGender)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	profiles := make([]domain.Profile, 0)
	err = query.Order("created_at DESC").Find(&profiles).Error
	return profiles, err
}

// ========== Match Repository ==========

// CreateMatch 记录一次滑动
func (s *Store) CreateMatch(ctx context.Context, match *domain.Match) error {
	if match.ID == "" {
		match.ID = newID()
	}
	err := s.db.WithContext(ctx).Create(match).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrAlreadySwiped
	}
	if err != nil {
		return err
	}

	s.publish(ctx, realtime.NewEvent(realtime.TableMatches, realtime.ActionInsert, match.ID, match, match.UserID, match.MatchedUserID))
	return nil
}

// GetMatch 获取滑动记录
func (s *Store) GetMatch(ctx context.Context, userID, matchedUserID string) (*domain.Match, error) {
	var match domain.Match
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND matched_user_id = ?", userID, matchedUserID).
		First(&match).Error
	if err != nil {
		return nil, mapNotFound(err, storage.ErrMatchNotFound)
	}
	return &match, nil
}

// ListMutualMatches 返回互相喜欢的记录
func (s *Store) ListMutualMatches(ctx context.Context, userID string) ([]domain.Match, error) {
	db := s.db.WithContext(ctx)
	likedBack := db.Model(&domain.Match{}).Select("user_id").
		Where("matched_user_id = ? AND is_liked = ?", userID, true)

	matches := make([]domain.Match, 0)
	err := db.Where("user_id = ? AND is_liked = ?", userID, true).
		Where("matched_user_id IN (?)", likedBack).
		Order("created_at DESC").
		Find(&matches).Error
	return matches, err
}
