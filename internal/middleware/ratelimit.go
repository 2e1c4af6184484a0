package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"campusdate/backend/internal/monitoring"
)

// Limiter 判断某个 key 是否允许继续请求
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiter 进程内令牌桶限流器，每个 key 一个桶
type LocalLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter 创建进程内限流器
//
// 参数:
//   - perMinute: 每分钟补充的令牌数
//   - burst: 桶容量
func NewLocalLimiter(perMinute, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LocalLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		buckets: make(map[string]*bucket),
	}
}

// Allow 消耗一个令牌
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// Cleanup 清理长时间未使用的桶
func (l *LocalLimiter) Cleanup() int {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Run 定期清理，直到 ctx 结束
func (l *LocalLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// RateCounter 固定窗口计数器（Redis 实现）
type RateCounter interface {
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// CounterLimiter 基于共享计数器的固定窗口限流，多实例共享配额
type CounterLimiter struct {
	counter RateCounter
	max     int64
	window  time.Duration
}

// NewCounterLimiter 创建共享计数限流器
func NewCounterLimiter(counter RateCounter, max int, window time.Duration) *CounterLimiter {
	return &CounterLimiter{counter: counter, max: int64(max), window: window}
}

// Allow 计数加一并判断是否超限
func (l *CounterLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.counter.IncrementRateLimit(ctx, key, l.window)
	if err != nil {
		return false, err
	}
	return count <= l.max, nil
}

// KeyFunc 从请求中提取限流 key，返回空字符串表示不限流
type KeyFunc func(c *gin.Context) string

// KeyByIP 按客户端 IP 限流
func KeyByIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// KeyByUser 按认证用户限流，需放在 RequireAuth 之后
func KeyByUser(c *gin.Context) string {
	if id := UserID(c); id != "" {
		return "user:" + id
	}
	return ""
}

// RateLimit 限流中间件
//
// 限流器出错时放行并记录日志。
func RateLimit(limiter Limiter, keyFn KeyFunc, limitType string, metrics *monitoring.Metrics, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), limitType+":"+key)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("limitType", limitType), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			if metrics != nil {
				metrics.RecordRateLimitBlock(limitType)
			}
			log.Info("rate limit exceeded",
				zap.String("limitType", limitType),
				zap.String("key", key),
				zap.String("path", c.FullPath()))
			c.Header("Retry-After", strconv.Itoa(60))
			abort(c, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
			return
		}
		c.Next()
	}
}
