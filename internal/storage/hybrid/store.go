package hybrid

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage"
	"campusdate/backend/internal/storage/postgres"
	"campusdate/backend/internal/storage/redis"
)

var _ storage.Store = (*Store)(nil)

const (
	blockCacheTTL   = time.Minute
	profileCacheTTL = 10 * time.Minute
)

// Store 混合存储实现，SQL 为权威数据源，Redis 缓存屏蔽判断、资料与 JWT 黑名单
//
// 未覆盖的方法直接由内嵌的 SQL 存储提供。
type Store struct {
	*postgres.Store
	redis *redis.Client
	cache *redis.Cache
	log   *zap.Logger
}

// NewStore 创建混合存储实例
func NewStore(sql *postgres.Store, client *redis.Client, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		Store: sql,
		redis: client,
		cache: redis.NewCache(client, "campusdate"),
		log:   log,
	}
}

// ========== Block Repository ==========

// IsBlocked 优先读取缓存
func (s *Store) IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error) {
	if blocked, err := s.cache.GetCachedBlocked(ctx, blockerID, blockedID); err == nil {
		return blocked, nil
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		s.log.Warn("block cache read failed", zap.Error(err))
	}

	blocked, expiresAt, err := s.Store.ActiveBlockExpiry(ctx, blockerID, blockedID)
	if err != nil {
		return false, err
	}
	ttl := blockTTL(expiresAt, time.Now())
	if ttl <= 0 {
		return blocked, nil
	}
	if err := s.cache.CacheBlocked(ctx, blockerID, blockedID, blocked, ttl); err != nil {
		s.log.Warn("block cache write failed", zap.Error(err))
	}
	return blocked, nil
}

// blockTTL 缓存时长不超过屏蔽的剩余有效期
func blockTTL(expiresAt *time.Time, now time.Time) time.Duration {
	if expiresAt == nil {
		return blockCacheTTL
	}
	return min(blockCacheTTL, expiresAt.Sub(now))
}

// CreateBlock 写入后使缓存失效
func (s *Store) CreateBlock(ctx context.Context, block *domain.BlockedUser) error {
	if err := s.Store.CreateBlock(ctx, block); err != nil {
		return err
	}
	s.invalidateBlock(ctx, block.BlockerID, block.BlockedID)
	return nil
}

// DeleteBlock 删除后使缓存失效
func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	if err := s.Store.DeleteBlock(ctx, blockerID, blockedID); err != nil {
		return err
	}
	s.invalidateBlock(ctx, blockerID, blockedID)
	return nil
}

func (s *Store) invalidateBlock(ctx context.Context, a, b string) {
	if err := s.cache.InvalidateBlock(ctx, a, b); err != nil {
		s.log.Warn("block cache invalidation failed", zap.Error(err))
	}
}

// ========== DataService ==========

// RejectMessageRequest 拒绝会产生冷却屏蔽，需要使缓存失效
func (s *Store) RejectMessageRequest(ctx context.Context, requestID, recipientID string) (*time.Time, error) {
	until, err := s.Store.RejectMessageRequest(ctx, requestID, recipientID)
	if err != nil {
		return nil, err
	}
	if until != nil {
		if req, err := s.requestSender(ctx, requestID); err == nil {
			s.invalidateBlock(ctx, recipientID, req)
		}
	}
	return until, nil
}

func (s *Store) requestSender(ctx context.Context, requestID string) (string, error) {
	var req domain.MessageRequest
	err := s.DB().WithContext(ctx).Select("sender_id").Where("id = ?", requestID).First(&req).Error
	return req.SenderID, err
}

// ========== Profile Repository ==========

// GetProfileByUserID 优先读取缓存
func (s *Store) GetProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	if profile, err := s.cache.GetCachedProfile(ctx, userID); err == nil {
		return profile, nil
	}

	profile, err := s.Store.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.CacheProfile(ctx, profile, profileCacheTTL); err != nil {
		s.log.Warn("profile cache write failed", zap.Error(err))
	}
	return profile, nil
}

// UpdateProfile 更新后删除缓存
func (s *Store) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	if err := s.Store.UpdateProfile(ctx, profile); err != nil {
		return err
	}
	if err := s.cache.DeleteCachedProfile(ctx, profile.UserID); err != nil {
		s.log.Warn("profile cache invalidation failed", zap.Error(err))
	}
	return nil
}

// ========== Token Blacklist ==========

// AddToBlacklist 黑名单只存 Redis，随 TTL 自动过期
func (s *Store) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return s.cache.AddToBlacklist(ctx, jti, ttl)
}

// IsBlacklisted 检查 JWT 是否在黑名单中
func (s *Store) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.cache.IsBlacklisted(ctx, jti)
}

// Cache 返回 Redis 缓存，供限流等组件复用
func (s *Store) Cache() *redis.Cache {
	return s.cache
}

// Close 关闭数据库与 Redis 连接
func (s *Store) Close() error {
	return errors.Join(s.Store.Close(), s.redis.Close())
}

// Health 同时检查数据库与 Redis
func (s *Store) Health(ctx context.Context) error {
	if err := s.Store.Health(ctx); err != nil {
		return err
	}
	return s.redis.Ping(ctx)
}
