package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/security"
	"campusdate/backend/internal/storage"
)

// 推荐列表默认与最大条数
const (
	DefaultDiscoverLimit = 20
	MaxDiscoverLimit     = 50
)

// ProfileService 用户资料服务
type ProfileService struct {
	store  storage.Store
	photos *security.MediaPolicy
	logger *zap.Logger
	now    func() time.Time
}

// NewProfileService 创建资料服务
func NewProfileService(store storage.Store, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{store: store, photos: security.PhotoPolicy(), logger: logger, now: time.Now}
}

// CreateProfileInput 创建资料（注册引导）
type CreateProfileInput struct {
	FirstName        string                  `json:"firstName"`
	DisplayName      string                  `json:"displayName"`
	BirthDate        *time.Time              `json:"birthDate"`
	Gender           domain.Gender           `json:"gender"`
	LookingForGender []domain.Gender         `json:"lookingForGender"`
	Bio              string                  `json:"bio"`
	CourseOfStudy    string                  `json:"courseOfStudy"`
	YearOfStudy      int                     `json:"yearOfStudy"`
	Interests        []string                `json:"interests"`
	Photos           []string                `json:"photos"`
	RelationshipGoal domain.RelationshipGoal `json:"relationshipGoal"`
}

// CreateProfile 创建资料
func (s *ProfileService) CreateProfile(ctx context.Context, userID string, input CreateProfileInput) (*domain.Profile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		UserID:           user.ID,
		Email:            user.Email,
		FirstName:        strings.TrimSpace(input.FirstName),
		DisplayName:      strings.TrimSpace(input.DisplayName),
		BirthDate:        input.BirthDate,
		Gender:           input.Gender,
		LookingForGender: input.LookingForGender,
		Bio:              strings.TrimSpace(input.Bio),
		University:       user.University,
		CourseOfStudy:    strings.TrimSpace(input.CourseOfStudy),
		YearOfStudy:      input.YearOfStudy,
		Interests:        domain.NormalizeInterests(input.Interests),
		Photos:           cleanPhotos(input.Photos),
		RelationshipGoal: input.RelationshipGoal,
		IsVerified:       user.IsVerified,
	}
	if err := s.validate(profile); err != nil {
		return nil, err
	}
	profile.CheckComplete()

	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.logger.Info("profile created", zap.String("userID", userID), zap.Bool("complete", profile.IsComplete))
	return profile, nil
}

// GetProfile 获取资料
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.store.GetProfileByUserID(ctx, userID)
}

// UpdateProfile 按非空字段更新资料
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.Profile, error) {
	profile, err := s.store.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil {
		profile.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.DisplayName != nil {
		profile.DisplayName = strings.TrimSpace(*update.DisplayName)
	}
	if update.BirthDate != nil {
		profile.BirthDate = update.BirthDate
	}
	if update.Gender != nil {
		profile.Gender = *update.Gender
	}
	if update.LookingForGender != nil {
		profile.LookingForGender = update.LookingForGender
	}
	if update.Bio != nil {
		profile.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.CourseOfStudy != nil {
		profile.CourseOfStudy = strings.TrimSpace(*update.CourseOfStudy)
	}
	if update.YearOfStudy != nil {
		profile.YearOfStudy = *update.YearOfStudy
	}
	if update.Interests != nil {
		profile.Interests = domain.NormalizeInterests(update.Interests)
	}
	if update.Photos != nil {
		profile.Photos = cleanPhotos(update.Photos)
	}
	if update.RelationshipGoal != nil {
		profile.RelationshipGoal = *update.RelationshipGoal
	}

	if err := s.validate(profile); err != nil {
		return nil, err
	}
	profile.CheckComplete()

	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Discover 返回推荐资料
//
// 排除自己、已滑过以及任一方向屏蔽的用户，只返回完整资料。
func (s *ProfileService) Discover(ctx context.Context, userID string, limit int) ([]domain.Profile, error) {
	if limit <= 0 {
		limit = DefaultDiscoverLimit
	}
	if limit > MaxDiscoverLimit {
		limit = MaxDiscoverLimit
	}
	profiles, err := s.store.ListDiscoverable(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list discoverable profiles: %w", err)
	}
	return profiles, nil
}

func (s *ProfileService) validate(profile *domain.Profile) error {
	if err := profile.Validate(s.now()); err != nil {
		return err
	}
	for _, photo := range profile.Photos {
		if err := s.photos.CheckURL(photo); err != nil {
			return err
		}
	}
	return nil
}

func cleanPhotos(photos []string) []string {
	out := make([]string, 0, len(photos))
	for _, p := range photos {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
