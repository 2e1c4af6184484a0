package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"campusdate/backend/internal/domain"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// Cache 业务数据缓存
type Cache struct {
	client *Client
	prefix string
}

// NewCache 创建缓存，所有键带 prefix 前缀
func NewCache(client *Client, prefix string) *Cache {
	if prefix == "" {
		prefix = "campusdate"
	}
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(parts ...string) string {
	k := c.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// ========== 屏蔽缓存 ==========

// CacheBlocked 缓存屏蔽判断结果
func (c *Cache) CacheBlocked(ctx context.Context, blockerID, blockedID string, blocked bool, ttl time.Duration) error {
	value := "0"
	if blocked {
		value = "1"
	}
	return c.client.rdb.Set(ctx, c.key("block", blockerID, blockedID), value, ttl).Err()
}

// GetCachedBlocked 读取屏蔽判断结果，未命中返回 ErrCacheMiss
func (c *Cache) GetCachedBlocked(ctx context.Context, blockerID, blockedID string) (bool, error) {
	value, err := c.client.rdb.Get(ctx, c.key("block", blockerID, blockedID)).Result()
	if errors.Is(err, goredis.Nil) {
		return false, ErrCacheMiss
	}
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// InvalidateBlock 删除两人之间两个方向的屏蔽缓存
func (c *Cache) InvalidateBlock(ctx context.Context, a, b string) error {
	return c.client.rdb.Del(ctx, c.key("block", a, b), c.key("block", b, a)).Err()
}

// ========== 资料缓存 ==========

// CacheProfile 缓存用户资料
func (c *Cache) CacheProfile(ctx context.Context, profile *domain.Profile, ttl time.Duration) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.client.rdb.Set(ctx, c.key("profile", profile.UserID), data, ttl).Err()
}

// GetCachedProfile 获取缓存的用户资料
func (c *Cache) GetCachedProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	data, err := c.client.rdb.Get(ctx, c.key("profile", userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var profile domain.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// DeleteCachedProfile 删除缓存的用户资料
func (c *Cache) DeleteCachedProfile(ctx context.Context, userID string) error {
	return c.client.rdb.Del(ctx, c.key("profile", userID)).Err()
}

// ========== JWT 黑名单 ==========

// AddToBlacklist 将 JWT 加入黑名单
func (c *Cache) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return c.client.rdb.Set(ctx, c.key("blacklist", jti), "1", ttl).Err()
}

// IsBlacklisted 检查 JWT 是否在黑名单中
func (c *Cache) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.client.rdb.Exists(ctx, c.key("blacklist", jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ========== 限流计数 ==========

// IncrementRateLimit 固定窗口计数，首次计数时设置窗口过期时间
func (c *Cache) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := c.key("ratelimit", key)

	pipe := c.client.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment rate limit: %w", err)
	}
	return incr.Val(), nil
}
