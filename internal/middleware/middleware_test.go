package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusdate/backend/internal/auth"
	"campusdate/backend/internal/auth/jwt"
	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/monitoring"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authenticatorFunc func(ctx context.Context, token string) (*jwt.Claims, error)

func (f authenticatorFunc) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	return f(ctx, token)
}

type userLookupFunc func(ctx context.Context, id string) (*domain.User, error)

func (f userLookupFunc) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return f(ctx, id)
}

func fixedAuth(valid string, err error) authenticatorFunc {
	return func(_ context.Context, token string) (*jwt.Claims, error) {
		if token == valid {
			return &jwt.Claims{UserID: "u1", Email: "alice@mit.edu", Role: "user", TokenType: jwt.TypeAccess}, nil
		}
		if err != nil {
			return nil, err
		}
		return nil, jwt.ErrInvalidToken
	}
}

type counterFunc func(ctx context.Context, key string, window time.Duration) (int64, error)

func (f counterFunc) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	return f(ctx, key, window)
}

func TestJWTAuth_RequireAuth(t *testing.T) {
	newRouter := func(err error) *gin.Engine {
		r := gin.New()
		r.GET("/me", NewJWTAuth(fixedAuth("good", err), nil).RequireAuth(), func(c *gin.Context) {
			c.String(http.StatusOK, UserID(c)+"|"+Claims(c).Email)
		})
		return r
	}

	t.Run("Bearer 令牌", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		newRouter(nil).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1|alice@mit.edu", w.Body.String())
	})

	t.Run("Cookie 令牌", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "good"})
		newRouter(nil).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("缺少令牌", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "需要登录认证")
	})

	t.Run("令牌过期", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer stale")
		newRouter(jwt.ErrExpiredToken).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "登录已过期")
	})

	t.Run("令牌已注销", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer revoked")
		newRouter(auth.ErrTokenRevoked).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "令牌已注销")
	})
}

func TestJWTAuth_OptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/feed", NewJWTAuth(fixedAuth("good", nil), nil).OptionalAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "user="+UserID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed", nil))
	assert.Equal(t, "user=", w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Authorization", "Bearer bad")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "无效令牌不阻断请求")
	assert.Equal(t, "user=", w.Body.String())
}

func TestAdminAuth(t *testing.T) {
	users := map[string]*domain.User{
		"u1":    {ID: "u1", Role: domain.RoleUser, IsActive: true},
		"admin": {ID: "admin", Role: domain.RoleAdmin, IsActive: true},
		"super": {ID: "super", Role: domain.RoleSuper, IsActive: true},
		"off":   {ID: "off", Role: domain.RoleAdmin, IsActive: false},
	}
	lookup := userLookupFunc(func(_ context.Context, id string) (*domain.User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		return nil, errors.New("user not found")
	})
	admin := NewAdminAuth(lookup)

	newRouter := func(userID string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if userID != "" {
				c.Set(ContextUserID, userID)
			}
		})
		r.GET("/admin", admin.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
		r.GET("/super", admin.RequireSuper(), func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	tests := []struct {
		name   string
		userID string
		path   string
		want   int
	}{
		{"未登录", "", "/admin", http.StatusUnauthorized},
		{"普通用户", "u1", "/admin", http.StatusForbidden},
		{"管理员", "admin", "/admin", http.StatusOK},
		{"管理员访问超管接口", "admin", "/super", http.StatusForbidden},
		{"超级管理员", "super", "/super", http.StatusOK},
		{"已禁用管理员", "off", "/admin", http.StatusForbidden},
		{"用户不存在", "ghost", "/admin", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(tt.userID).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRateLimit_Local(t *testing.T) {
	metrics := monitoring.NewMetrics()
	limiter := NewLocalLimiter(60, 2)

	r := gin.New()
	r.GET("/ping", RateLimit(limiter, KeyByIP, "ip", metrics, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RateLimitBlocks.WithLabelValues("ip")))

	t.Run("不同 IP 独立计数", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimit_ByUserSkipsAnonymous(t *testing.T) {
	limiter := NewLocalLimiter(60, 1)
	r := gin.New()
	r.GET("/x", RateLimit(limiter, KeyByUser, "user", nil, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_Counter(t *testing.T) {
	counts := map[string]int64{}
	counter := counterFunc(func(_ context.Context, key string, _ time.Duration) (int64, error) {
		counts[key]++
		return counts[key], nil
	})
	limiter := NewCounterLimiter(counter, 1, time.Minute)

	allowed, err := limiter.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = limiter.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	t.Run("计数器故障时放行", func(t *testing.T) {
		broken := NewCounterLimiter(counterFunc(func(context.Context, string, time.Duration) (int64, error) {
			return 0, errors.New("redis down")
		}), 1, time.Minute)

		r := gin.New()
		r.GET("/x", RateLimit(broken, KeyByIP, "ip", nil, nil), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestLocalLimiter_Cleanup(t *testing.T) {
	limiter := NewLocalLimiter(60, 1)
	limiter.idleTTL = 0
	_, _ = limiter.Allow(context.Background(), "a")
	_, _ = limiter.Allow(context.Background(), "b")

	time.Sleep(time.Millisecond)
	assert.Equal(t, 2, limiter.Cleanup())
}

func TestBodySizeLimit(t *testing.T) {
	r := gin.New()
	r.POST("/upload", BodySizeLimit(8), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "8", w.Header().Get("X-Max-Body-Size"))
}

func TestValidateContentType(t *testing.T) {
	r := gin.New()
	r.Use(ValidateContentType("application/json"))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code, "空请求体不校验")
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestMonitoringMiddleware(t *testing.T) {
	metrics := monitoring.NewMetrics()
	mm := NewMonitoringMiddleware(metrics, nil)

	r := gin.New()
	r.Use(mm.PanicRecovery(), mm.HTTPMetrics(), mm.BusinessMetrics())
	r.POST("/api/v1/auth/register", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/api/v1/swipes", func(c *gin.Context) {
		c.Set(ContextMatched, true)
		c.Status(http.StatusOK)
	})
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	for _, path := range []string{"/api/v1/auth/register", "/api/v1/swipes"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.UsersRegistered))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.MatchesCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PanicsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/api/v1/auth/register", "201")))
}
