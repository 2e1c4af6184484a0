package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store 使用内存保存全部业务数据，主要用于开发验证与测试。
//
// 所有读写均由同一把读写锁保护，消息请求的状态流转在写锁内完成，
// 因此同一请求的并发 accept/reject 只有一个会成功。
type Store struct {
	mu sync.RWMutex

	users   map[string]*domain.User // userID -> user
	byEmail map[string]string       // email -> userID

	profiles map[string]*domain.Profile // userID -> profile
	matches  map[string]*domain.Match   // "userID|matchedUserID" -> match

	conversations map[string]*domain.Conversation // convID -> conversation
	byPair        map[string]string               // "user1|user2" -> convID
	messages      map[string][]*domain.Message    // convID -> 按时间正序
	messageByID   map[string]*domain.Message

	requests map[string]*domain.MessageRequest
	blocks   []*domain.BlockedUser

	reports       map[string]*domain.Report
	verifications map[string]*domain.Verification
	messageLogs   map[string]*domain.MessageLog
	auditLogs     []*domain.AdminAuditLog

	blacklist map[string]time.Time // jti -> 过期时间

	cooldown  time.Duration
	publisher realtime.Publisher
	now       func() time.Time
}

// NewStore 创建一个内存存储实例。
//
// cooldown 为拒绝消息请求后发送方被限制联系的时长，0 表示不设置冷却期。
func NewStore(cooldown time.Duration) *Store {
	return &Store{
		users:         make(map[string]*domain.User),
		byEmail:       make(map[string]string),
		profiles:      make(map[string]*domain.Profile),
		matches:       make(map[string]*domain.Match),
		conversations: make(map[string]*domain.Conversation),
		byPair:        make(map[string]string),
		messages:      make(map[string][]*domain.Message),
		messageByID:   make(map[string]*domain.Message),
		requests:      make(map[string]*domain.MessageRequest),
		reports:       make(map[string]*domain.Report),
		verifications: make(map[string]*domain.Verification),
		messageLogs:   make(map[string]*domain.MessageLog),
		blacklist:     make(map[string]time.Time),
		cooldown:      cooldown,
		publisher:     realtime.NopPublisher{},
		now:           time.Now,
	}
}

// SetPublisher 设置变更事件发布方
func (s *Store) SetPublisher(p realtime.Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		p = realtime.NopPublisher{}
	}
	s.publisher = p
}

// publish 在锁外调用
func (s *Store) publish(ctx context.Context, events ...realtime.Event) {
	s.mu.RLock()
	p := s.publisher
	s.mu.RUnlock()
	for _, e := range events {
		_ = p.Publish(ctx, e)
	}
}

func newID() string {
	return uuid.NewString()
}

func pairKey(a, b string) string {
	a, b = domain.OrderedPair(a, b)
	return a + "|" + b
}

// ========== User Repository ==========

// CreateUser 创建用户。
func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return storage.ErrUserExists
	}
	if user.ID == "" {
		user.ID = newID()
	}
	if _, exists := s.users[user.ID]; exists {
		return storage.ErrUserExists
	}
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	cp := *user
	s.users[user.ID] = &cp
	s.byEmail[email] = user.ID
	return nil
}

// GetUserByID 根据 ID 获取用户。
func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// GetUserByEmail 根据邮箱获取用户（不区分大小写）。
func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

// UpdateUser 更新用户信息。
func (s *Store) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return storage.ErrUserNotFound
	}
	oldEmail := strings.ToLower(existing.Email)
	newEmail := strings.ToLower(user.Email)
	if oldEmail != newEmail {
		if _, taken := s.byEmail[newEmail]; taken {
			return storage.ErrUserExists
		}
		delete(s.byEmail, oldEmail)
		s.byEmail[newEmail] = user.ID
	}

	user.UpdatedAt = s.now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// UpdateLastLogin 更新最后登录时间。
func (s *Store) UpdateLastLogin(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	now := s.now()
	user.LastLoginAt = &now
	return nil
}

// ListUsers 分页列出用户，按注册时间倒序。
func (s *Store) ListUsers(_ context.Context, filter domain.UserFilter) ([]domain.User, int, error) {
	filter.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		if search != "" && !strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		if filter.IsVerified != nil && u.IsVerified != *filter.IsVerified {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		matched = append(matched, *u)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []domain.User{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// ========== Token Blacklist ==========

// AddToBlacklist 将 JWT 加入黑名单。
func (s *Store) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.blacklist {
		if !now.Before(exp) {
			delete(s.blacklist, k)
		}
	}
	s.blacklist[jti] = now.Add(ttl)
	return nil
}

// IsBlacklisted 检查 JWT 是否在黑名单中。
func (s *Store) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.blacklist[jti]
	return ok && s.now().Before(exp), nil
}

// ========== 统计 ==========

// GetDashboardStats 获取管理后台统计。
func (s *Store) GetDashboardStats(_ context.Context) (*domain.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.DashboardStats{
		TotalUsers:         len(s.users),
		TotalConversations: len(s.conversations),
		GeneratedAt:        s.now().UTC(),
	}
	for _, u := range s.users {
		if u.IsVerified {
			stats.VerifiedUsers++
		}
	}
	for _, p := range s.profiles {
		if p.IsComplete {
			stats.CompleteProfiles++
		}
	}
	for _, v := range s.verifications {
		if v.Status == domain.VerificationPending {
			stats.PendingVerifications++
		}
	}
	for _, l := range s.messageLogs {
		if l.Flagged && !l.Reviewed {
			stats.FlaggedMessages++
		}
	}
	for _, r := range s.reports {
		if r.Status == domain.ReportPending {
			stats.OpenReports++
		}
	}
	for _, r := range s.requests {
		if r.Status == domain.RequestPending {
			stats.PendingRequests++
		}
	}
	return stats, nil
}

// Close 关闭存储（内存实现无需释放资源）。
func (s *Store) Close() error {
	return nil
}

// Health 健康检查。
func (s *Store) Health(context.Context) error {
	return nil
}
