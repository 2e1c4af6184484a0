package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"campusdate/backend/internal/auth/jwt"
	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage"
	"campusdate/backend/internal/university"
)

var (
	// ErrNotUniversityEmail 非高校邮箱不允许注册
	ErrNotUniversityEmail = errors.New("please use your university email address")
	// ErrEmailExists 邮箱已存在
	ErrEmailExists = errors.New("email already exists")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials 凭证无效
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserInactive 用户已被禁用
	ErrUserInactive = errors.New("user is inactive")
	// ErrTokenRevoked 令牌已注销
	ErrTokenRevoked = errors.New("token has been revoked")
	// ErrInvalidOldPassword 原密码错误
	ErrInvalidOldPassword = errors.New("invalid old password")
)

// Service 认证服务
type Service struct {
	users      storage.UserRepository
	blacklist  storage.TokenBlacklist
	classifier *university.Classifier
	tokens     *jwt.Manager
	logger     *zap.Logger
	now        func() time.Time
}

// NewService 创建认证服务
func NewService(users storage.UserRepository, blacklist storage.TokenBlacklist, classifier *university.Classifier, tokens *jwt.Manager, logger *zap.Logger) *Service {
	if classifier == nil {
		classifier = university.NewClassifier(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:      users,
		blacklist:  blacklist,
		classifier: classifier,
		tokens:     tokens,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput 登录输入
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult 注册/登录结果
type AuthResult struct {
	User   *domain.User   `json:"user"`
	Tokens *TokenResponse `json:"tokens"`
}

// Register 用户注册，仅接受高校邮箱
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := domain.ValidateEmailFormat(email); err != nil {
		return nil, err
	}

	result := s.classifier.Classify(email)
	if !result.IsValid {
		s.logger.Info("registration rejected: not a university email", zap.String("domain", result.Domain))
		return nil, ErrNotUniversityEmail
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		University:   result.Domain,
		Country:      result.Country,
		IsActive:     true,
	}
	if info, ok := s.classifier.InstitutionInfo(email); ok {
		user.University = info.Name
		user.Country = info.Country
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("userID", user.ID),
		zap.String("university", user.University),
		zap.String("confidence", string(result.Confidence)))

	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login 用户登录
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login", zap.String("userID", user.ID), zap.Error(err))
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Refresh 使用刷新令牌换取新的令牌对，旧刷新令牌随即注销
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.Remaining(s.now())); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return s.issue(user)
}

// Logout 注销访问令牌，refreshToken 非空时一并注销
func (s *Service) Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error {
	if err := s.blacklist.AddToBlacklist(ctx, access.ID, access.Remaining(s.now())); err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}

	if refreshToken == "" {
		return nil
	}
	refresh, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		// 刷新令牌已失效时无需处理
		return nil
	}
	if refresh.UserID != access.UserID {
		return jwt.ErrInvalidToken
	}
	if err := s.blacklist.AddToBlacklist(ctx, refresh.ID, refresh.Remaining(s.now())); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Authenticate 校验访问令牌并检查是否已注销
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*jwt.Claims, error) {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}
	return claims, nil
}

// GetUserByID 根据 ID 获取用户
func (s *Service) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword 修改密码
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !CheckPassword(oldPassword, user.PasswordHash) {
		return ErrInvalidOldPassword
	}

	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = newHash
	return s.users.UpdateUser(ctx, user)
}

func (s *Service) checkRevoked(ctx context.Context, jti string) error {
	revoked, err := s.blacklist.IsBlacklisted(ctx, jti)
	if err != nil {
		return fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func (s *Service) issue(user *domain.User) (*TokenResponse, error) {
	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return newTokenResponse(pair), nil
}

// HashPassword 哈希密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword 检查密码是否匹配
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
