package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage"
)

// MatchService 滑动与配对服务
type MatchService struct {
	store  storage.Store
	logger *zap.Logger
}

// NewMatchService 创建配对服务
func NewMatchService(store storage.Store, logger *zap.Logger) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchService{store: store, logger: logger}
}

// SwipeInput 滑动参数
type SwipeInput struct {
	TargetUserID string `json:"targetUserId" binding:"required"`
	Liked        bool   `json:"liked"`
	SuperLike    bool   `json:"superLike"`
}

// Swipe 记录一次滑动，双方互相喜欢时确保会话存在
func (s *MatchService) Swipe(ctx context.Context, userID string, input SwipeInput) (*domain.SwipeResult, error) {
	if input.TargetUserID == userID {
		return nil, ErrSelfAction
	}
	if _, err := s.store.GetUserByID(ctx, input.TargetUserID); err != nil {
		return nil, err
	}
	if blocked, err := blockedEitherWay(ctx, s.store, userID, input.TargetUserID); err != nil {
		return nil, err
	} else if blocked {
		return nil, ErrUserBlocked
	}

	match := &domain.Match{
		UserID:        userID,
		MatchedUserID: input.TargetUserID,
		IsLiked:       input.Liked || input.SuperLike,
		IsSuperLike:   input.SuperLike,
	}
	if err := s.store.CreateMatch(ctx, match); err != nil {
		return nil, err
	}

	result := &domain.SwipeResult{Match: match}
	if !match.IsLiked {
		return result, nil
	}

	back, err := s.store.GetMatch(ctx, input.TargetUserID, userID)
	if errors.Is(err, storage.ErrMatchNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	if !back.IsLiked {
		return result, nil
	}

	conv, created, err := s.store.EnsureConversation(ctx, userID, input.TargetUserID)
	if err != nil {
		return nil, err
	}
	result.Matched = true
	result.ConversationID = conv.ID

	s.logger.Info("mutual match",
		zap.String("userID", userID),
		zap.String("targetUserID", input.TargetUserID),
		zap.Bool("conversationCreated", created))
	return result, nil
}

// ListMatches 列出互相喜欢的对象
func (s *MatchService) ListMatches(ctx context.Context, userID string) ([]domain.MutualMatch, error) {
	matches, err := s.store.ListMutualMatches(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.MatchedUserID)
	}
	profiles, err := s.store.ListProfilesByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]*domain.Profile, len(profiles))
	for i := range profiles {
		byUser[profiles[i].UserID] = &profiles[i]
	}

	out := make([]domain.MutualMatch, 0, len(matches))
	for _, m := range matches {
		item := domain.MutualMatch{
			UserID:    m.MatchedUserID,
			Profile:   byUser[m.MatchedUserID],
			MatchedAt: m.CreatedAt,
		}
		conv, err := s.store.GetConversationByPair(ctx, userID, m.MatchedUserID)
		switch {
		case err == nil:
			item.ConversationID = conv.ID
		case !errors.Is(err, storage.ErrConversationNotFound):
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func blockedEitherWay(ctx context.Context, blocks storage.BlockRepository, a, b string) (bool, error) {
	blocked, err := blocks.IsBlocked(ctx, a, b)
	if err != nil || blocked {
		return blocked, err
	}
	return blocks.IsBlocked(ctx, b, a)
}
