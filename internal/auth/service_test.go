package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusdate/backend/internal/auth/jwt"
	"campusdate/backend/internal/config"
	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(24 * time.Hour)
	tokens := NewJWTManager(&config.JWTConfig{
		Secret:        strings.Repeat("a", 32),
		Issuer:        "test",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	})
	return NewService(store, store, nil, tokens, nil), store
}

func TestAuthService_Register(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	result, err := service.Register(ctx, RegisterInput{Email: " Amy@MIT.edu ", Password: "Password123!"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.User.ID)
	assert.Equal(t, "amy@mit.edu", result.User.Email)
	assert.Equal(t, domain.RoleUser, result.User.Role)
	assert.Equal(t, "Massachusetts Institute of Technology", result.User.University)
	assert.Equal(t, "United States", result.User.Country)
	assert.Equal(t, "Bearer", result.Tokens.TokenType)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	saved, err := store.GetUserByEmail(ctx, "amy@mit.edu")
	require.NoError(t, err)
	assert.NotEqual(t, "Password123!", saved.PasswordHash)
	assert.True(t, CheckPassword("Password123!", saved.PasswordHash))
}

func TestAuthService_Register_UnknownInstitution(t *testing.T) {
	service, _ := newTestService(t)

	result, err := service.Register(context.Background(), RegisterInput{Email: "bo@yale.edu", Password: "Password123!"})
	require.NoError(t, err)
	assert.Equal(t, "yale.edu", result.User.University)
	assert.Equal(t, "us", result.User.Country)
}

func TestAuthService_Register_NotUniversityEmail(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Register(context.Background(), RegisterInput{Email: "a@gmail.com", Password: "Password123!"})
	assert.ErrorIs(t, err, ErrNotUniversityEmail)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Email: "not-an-email", Password: "Password123!"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = service.Register(ctx, RegisterInput{Email: "amy@mit.edu", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Email: "amy@mit.edu", Password: "Password123!"})
	require.NoError(t, err)

	_, err = service.Register(ctx, RegisterInput{Email: "AMY@mit.edu", Password: "Password456!"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_Login(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Email: "amy@mit.edu", Password: "Password123!"})
	require.NoError(t, err)

	t.Run("登录成功并记录登录时间", func(t *testing.T) {
		result, err := service.Login(ctx, LoginInput{Email: "AMY@mit.edu", Password: "Password123!"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Tokens.AccessToken)

		user, err := store.GetUserByID(ctx, result.User.ID)
		require.NoError(t, err)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("密码错误", func(t *testing.T) {
		_, err := service.Login(ctx, LoginInput{Email: "amy@mit.edu", Password: "wrong-password"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("用户不存在", func(t *testing.T) {
		_, err := service.Login(ctx, LoginInput{Email: "nobody@mit.edu", Password: "Password123!"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("用户被禁用", func(t *testing.T) {
		user, err := store.GetUserByEmail(ctx, "amy@mit.edu")
		require.NoError(t, err)
		user.IsActive = false
		require.NoError(t, store.UpdateUser(ctx, user))

		_, err = service.Login(ctx, LoginInput{Email: "amy@mit.edu", Password: "Password123!"})
		assert.ErrorIs(t, err, ErrUserInactive)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	result, err := service.Register(ctx, RegisterInput{Email: "amy@mit.edu", Password: "Password123!"})
	require.NoError(t, err)

	tokens, err := service.Refresh(ctx, result.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEqual(t, result.Tokens.RefreshToken, tokens.RefreshToken)

	t.Run("旧刷新令牌不可重复使用", func(t *testing.T) {
		_, err := service.Refresh(ctx, result.Tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("访问令牌不能用于刷新", func(t *testing.T) {
		_, err := service.Refresh(ctx, tokens.AccessToken)
		assert.ErrorIs(t, err, jwt.ErrWrongTokenType)
	})

	t.Run("无效令牌", func(t *testing.T) {
		_, err := service.Refresh(ctx, "invalid")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	result, err := service.Register(ctx, RegisterInput{Email: "amy@mit.edu", Password: "Password123!"})
	require.NoError(t, err)

	claims, err := service.Authenticate(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)

	require.NoError(t, service.Logout(ctx, claims, result.Tokens.RefreshToken))

	_, err = service.Authenticate(ctx, result.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = service.Refresh(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthService_ChangePassword(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	result, err := service.Register(ctx, RegisterInput{Email: "amy@mit.edu", Password: "Password123!"})
	require.NoError(t, err)

	err = service.ChangePassword(ctx, result.User.ID, "wrong-password", "NewPassword456!")
	assert.ErrorIs(t, err, ErrInvalidOldPassword)

	require.NoError(t, service.ChangePassword(ctx, result.User.ID, "Password123!", "NewPassword456!"))

	_, err = service.Login(ctx, LoginInput{Email: "amy@mit.edu", Password: "Password123!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(ctx, LoginInput{Email: "amy@mit.edu", Password: "NewPassword456!"})
	assert.NoError(t, err)

	err = service.ChangePassword(ctx, "missing", "x", "NewPassword456!")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
