package storage

import (
	"context"
	"errors"
	"time"

	"campusdate/backend/internal/domain"
)

// 通用记录错误
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileExists        = errors.New("profile already exists")
	ErrMatchNotFound        = errors.New("match not found")
	ErrAlreadySwiped        = errors.New("you have already responded to this profile")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrBlockNotFound        = errors.New("block not found")
	ErrReportNotFound       = errors.New("report not found")
	ErrVerificationNotFound = errors.New("verification not found")
	ErrVerificationPending  = errors.New("a verification is already pending review")
	ErrMessageLogNotFound   = errors.New("message log not found")
)

// 消息请求流程错误，文案会原样展示给客户端
var (
	ErrSelfRequest        = errors.New("you cannot send a message request to yourself")
	ErrEmptyContent       = errors.New("message content is required")
	ErrConversationExists = errors.New("a conversation with this user already exists")
	ErrRequestExists      = errors.New("you already have a pending request to this user")
	ErrSenderBlocked      = errors.New("you cannot message this user right now")
	ErrRequestNotFound    = errors.New("message request not found")
	ErrNotRecipient       = errors.New("this message request is not addressed to you")
	ErrRequestNotPending  = errors.New("this message request has already been handled")
)

// UserRepository 定义用户数据存取操作。
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error)
}

// ProfileRepository 定义用户资料存取操作。
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *domain.Profile) error
	GetProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, profile *domain.Profile) error
	ListProfilesByUserIDs(ctx context.Context, userIDs []string) ([]domain.Profile, error)
	// ListDiscoverable 返回可推荐的完整资料，排除自己、已滑过及双向屏蔽的用户
	ListDiscoverable(ctx context.Context, userID string, limit int) ([]domain.Profile, error)
}

// MatchRepository 定义滑动记录存取操作。
type MatchRepository interface {
	CreateMatch(ctx context.Context, match *domain.Match) error // 重复滑动返回 ErrAlreadySwiped
	GetMatch(ctx context.Context, userID, matchedUserID string) (*domain.Match, error)
	// ListMutualMatches 返回 userID 发出且对方也喜欢的记录
	ListMutualMatches(ctx context.Context, userID string) ([]domain.Match, error)
}

// ConversationRepository 定义会话存取操作。
type ConversationRepository interface {
	// EnsureConversation 获取或创建两人的会话，created 表示本次新建
	EnsureConversation(ctx context.Context, userA, userB string) (conv *domain.Conversation, created bool, err error)
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	GetConversationByPair(ctx context.Context, userA, userB string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) // 按 updated_at 倒序
}

// MessageRepository 定义聊天消息存取操作。
type MessageRepository interface {
	// CreateMessage 写入消息并刷新会话 updated_at
	CreateMessage(ctx context.Context, message *domain.Message) error
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) // 按时间正序
	GetLastMessage(ctx context.Context, conversationID string) (*domain.Message, error)
	CountUnread(ctx context.Context, conversationID, readerID string) (int, error)
	// MarkMessagesRead 将会话中对方发送的未读消息标记为已读
	MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int, error)
}

// BlockRepository 定义屏蔽记录存取操作。
type BlockRepository interface {
	CreateBlock(ctx context.Context, block *domain.BlockedUser) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) error
	IsBlocked(ctx context.Context, blockerID, blockedID string) (bool, error) // 判断当前是否存在有效屏蔽
	ListBlocks(ctx context.Context, blockerID string) ([]domain.BlockedUser, error)
	DeleteExpiredBlocks(ctx context.Context, before time.Time) (int, error)
}

// ReportRepository 定义举报存取操作。
type ReportRepository interface {
	CreateReport(ctx context.Context, report *domain.Report) error
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	UpdateReport(ctx context.Context, report *domain.Report) error
	ListReports(ctx context.Context, status *domain.ReportStatus, limit int) ([]domain.Report, error)
}

// VerificationRepository 定义身份认证存取操作。
type VerificationRepository interface {
	CreateVerification(ctx context.Context, v *domain.Verification) error // 已有待审核记录返回 ErrVerificationPending
	GetVerification(ctx context.Context, id string) (*domain.Verification, error)
	UpdateVerification(ctx context.Context, v *domain.Verification) error
	ListVerifications(ctx context.Context, status *domain.VerificationStatus, limit int) ([]domain.Verification, error)
	ListVerificationsByUser(ctx context.Context, userID string) ([]domain.Verification, error)
}

// ModerationRepository 定义审核日志与审计日志存取操作。
type ModerationRepository interface {
	CreateMessageLog(ctx context.Context, log *domain.MessageLog) error
	GetMessageLog(ctx context.Context, id string) (*domain.MessageLog, error)
	UpdateMessageLog(ctx context.Context, log *domain.MessageLog) error
	ListMessageLogs(ctx context.Context, filter domain.MessageLogFilter) ([]domain.MessageLog, error)
	CreateAuditLog(ctx context.Context, entry *domain.AdminAuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AdminAuditLog, error)
}

// StatisticsRepository 定义统计查询。
type StatisticsRepository interface {
	GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}

// DataService 消息请求的服务端流程
//
// 状态校验、归属校验与冷却期计算均由实现方负责，
// 同一请求的并发 accept/reject 只能有一个成功。
type DataService interface {
	CreateMessageRequest(ctx context.Context, senderID, recipientID, content string) (*domain.MessageRequest, error)
	AcceptMessageRequest(ctx context.Context, requestID, recipientID string) (conversationID string, err error)
	// RejectMessageRequest 返回发送方被限制联系的截止时间，未设置冷却期时为 nil
	RejectMessageRequest(ctx context.Context, requestID, recipientID string) (blockedUntil *time.Time, err error)
	ListPendingMessageRequests(ctx context.Context, recipientID string) ([]domain.MessageRequest, error)
}

// TokenBlacklist 定义 JWT 黑名单操作。
type TokenBlacklist interface {
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Store 定义完整的存储接口。
type Store interface {
	UserRepository
	ProfileRepository
	MatchRepository
	ConversationRepository
	MessageRepository
	BlockRepository
	ReportRepository
	VerificationRepository
	ModerationRepository
	StatisticsRepository
	DataService
	TokenBlacklist

	// 工具方法
	Close() error
	Health(ctx context.Context) error
}
