package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Options SQL 存储配置
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// Cooldown 拒绝消息请求后的冷却期，0 表示不设置
	Cooldown    time.Duration
	AutoMigrate bool
}

// Store 基于 GORM 的 SQL 存储实现（PostgreSQL / MySQL）
//
// 消息请求的状态流转在事务内对请求行加 FOR UPDATE 锁完成。
type Store struct {
	db        *gorm.DB
	cooldown  time.Duration
	publisher realtime.Publisher
	now       func() time.Time
}

// revokedToken 已注销的 JWT
type revokedToken struct {
	JTI       string    `gorm:"primaryKey;type:varchar(64)"`
	ExpiresAt time.Time `gorm:"index"`
}

// TableName 表名
func (revokedToken) TableName() string {
	return "revoked_tokens"
}

// Models 返回需要迁移的全部模型
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Profile{},
		&domain.Match{},
		&domain.Conversation{},
		&domain.Message{},
		&domain.MessageRequest{},
		&domain.BlockedUser{},
		&domain.Report{},
		&domain.Verification{},
		&domain.MessageLog{},
		&domain.AdminAuditLog{},
		&revokedToken{},
	}
}

// Migrate 自动迁移数据库表结构
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// NewStore 创建 PostgreSQL 存储实例
func NewStore(dsn string, opts Options) (*Store, error) {
	return NewStoreWithDialector(postgres.Open(dsn), opts)
}

// NewMySQLStore 创建 MySQL 存储实例
func NewMySQLStore(dsn string, opts Options) (*Store, error) {
	return NewStoreWithDialector(mysql.Open(dsn), opts)
}

// NewStoreWithDialector 使用指定的GORM dialector创建存储实例
func NewStoreWithDialector(dialector gorm.Dialector, opts Options) (*Store, error) {
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // 静默模式
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	store := &Store{
		db:        db,
		cooldown:  opts.Cooldown,
		publisher: realtime.NopPublisher{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}

	if opts.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	return store, nil
}

// SetPublisher 设置变更事件发布方
func (s *Store) SetPublisher(p realtime.Publisher) {
	if p == nil {
		p = realtime.NopPublisher{}
	}
	s.publisher = p
}

// DB 返回底层 GORM 连接
func (s *Store) DB() *gorm.DB {
	return s.db
}

// publish 在事务提交后调用
func (s *Store) publish(ctx context.Context, events ...realtime.Event) {
	for _, e := range events {
		_ = s.publisher.Publish(ctx, e)
	}
}

func newID() string {
	return uuid.NewString()
}

// mapNotFound 将 gorm.ErrRecordNotFound 转为业务错误
func mapNotFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// ========== User Repository ==========

// CreateUser 创建用户
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	user.Email = strings.ToLower(user.Email)
	user.IsActive = true

	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrUserExists
	}
	return err
}

// GetUserByID 根据 ID 获取用户
func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, mapNotFound(err, storage.ErrUserNotFound)
	}
	return &user, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, mapNotFound(err, storage.ErrUserNotFound)
	}
	return &user, nil
}

// UpdateUser 更新用户
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(user.Email)
	result := s.db.WithContext(ctx).Model(user).Select("*").Omit("created_at").Updates(user)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return storage.ErrUserExists
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin 更新最后登录时间
func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	result := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("last_login_at", s.now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

// ListUsers 分页列出用户
func (s *Store) ListUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	filter.Normalize()

	query := s.db.WithContext(ctx).Model(&domain.User{})
	if filter.Search != "" {
		query = query.Where("LOWER(email) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.IsVerified != nil {
		query = query.Where("is_verified = ?", *filter.IsVerified)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []domain.User
	err := query.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, int(total), nil
}

// ========== Token Blacklist ==========

// AddToBlacklist 将 JWT 加入黑名单
func (s *Store) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return s.db.WithContext(ctx).Save(&revokedToken{JTI: jti, ExpiresAt: s.now().Add(ttl)}).Error
}

// IsBlacklisted 检查 JWT 是否在黑名单中
func (s *Store) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&revokedToken{}).
		Where("jti = ? AND expires_at > ?", jti, s.now()).
		Count(&count).Error
	return count > 0, err
}

// ========== 统计 ==========

type countQuery struct {
	target *int
	query  *gorm.DB
}

// GetDashboardStats 获取管理后台统计
func (s *Store) GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &domain.DashboardStats{GeneratedAt: s.now()}

	queries := []countQuery{
		{&stats.TotalUsers, db.Model(&domain.User{})},
		{&stats.VerifiedUsers, db.Model(&domain.User{}).Where("is_verified = ?", true)},
		{&stats.CompleteProfiles, db.Model(&domain.Profile{}).Where("is_complete = ?", true)},
		{&stats.PendingVerifications, db.Model(&domain.Verification{}).Where("status = ?", domain.VerificationPending)},
		{&stats.FlaggedMessages, db.Model(&domain.MessageLog{}).Where("flagged = ? AND reviewed = ?", true, false)},
		{&stats.OpenReports, db.Model(&domain.Report{}).Where("status = ?", domain.ReportPending)},
		{&stats.TotalConversations, db.Model(&domain.Conversation{})},
		{&stats.PendingRequests, db.Model(&domain.MessageRequest{}).Where("status = ?", domain.RequestPending)},
	}
	for _, q := range queries {
		var n int64
		if err := q.query.Count(&n).Error; err != nil {
			return nil, err
		}
		*q.target = int(n)
	}
	return stats, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health 健康检查
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
