package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusdate/backend/internal/domain"
)

// UserLookup 按 ID 查询用户
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// AdminAuth 管理员权限中间件
//
// 角色以数据库为准，令牌中的 role 只作参考，降级后立即生效。
type AdminAuth struct {
	users UserLookup
}

// NewAdminAuth 创建管理员权限中间件
func NewAdminAuth(users UserLookup) *AdminAuth {
	return &AdminAuth{users: users}
}

// RequireAdmin 要求管理员权限（Admin或Super）
func (a *AdminAuth) RequireAdmin() gin.HandlerFunc {
	return a.require(func(u *domain.User) bool { return u.IsAdmin() }, "admin access required")
}

// RequireSuper 要求超级管理员权限
func (a *AdminAuth) RequireSuper() gin.HandlerFunc {
	return a.require(func(u *domain.User) bool { return u.IsSuper() }, "super admin access required")
}

// RequireRole 要求特定角色
func (a *AdminAuth) RequireRole(allowedRoles ...domain.UserRole) gin.HandlerFunc {
	return a.require(func(u *domain.User) bool {
		for _, role := range allowedRoles {
			if u.Role == role {
				return true
			}
		}
		return false
	}, "insufficient permissions")
}

func (a *AdminAuth) require(allowed func(*domain.User) bool, denied string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := a.users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			abort(c, http.StatusUnauthorized, "user not found")
			return
		}
		if !user.IsActive {
			abort(c, http.StatusForbidden, "user is inactive")
			return
		}
		if !allowed(user) {
			abort(c, http.StatusForbidden, denied)
			return
		}

		c.Set("user", user)
		c.Set(ContextRole, string(user.Role))
		c.Next()
	}
}
