package domain

import "time"

// MessageLog 消息审核日志，每条聊天消息写入一条
type MessageLog struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MessageID      string     `json:"messageId" gorm:"type:varchar(36);not null;uniqueIndex"`
	ConversationID string     `json:"conversationId" gorm:"type:varchar(36);not null;index"`
	SenderID       string     `json:"senderId" gorm:"type:varchar(36);not null;index"`
	Content        string     `json:"content" gorm:"type:text"`
	Flagged        bool       `json:"flagged" gorm:"default:false;index"`
	FlagReason     string     `json:"flagReason,omitempty" gorm:"type:varchar(255)"`
	Reviewed       bool       `json:"reviewed" gorm:"default:false;index"`
	ReviewedBy     *string    `json:"reviewedBy,omitempty" gorm:"type:varchar(36)"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" gorm:"index"`
}

// MessageLogFilter 审核日志过滤条件
type MessageLogFilter struct {
	MessageID string
	Flagged   *bool
	Reviewed  *bool
	Limit     int
}

// 审计动作
const (
	AuditApproveVerification = "approve_verification"
	AuditRejectVerification  = "reject_verification"
	AuditFlagMessage         = "flag_message"
	AuditReviewMessage       = "review_message"
	AuditUpdateReport        = "update_report"
	AuditDeactivateUser      = "deactivate_user"
	AuditActivateUser        = "activate_user"
)

// AdminAuditLog 管理员操作审计记录
type AdminAuditLog struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AdminID    string    `json:"adminId" gorm:"type:varchar(36);not null;index"`
	Action     string    `json:"action" gorm:"type:varchar(50);not null;index"`
	TargetType string    `json:"targetType" gorm:"type:varchar(50)"`
	TargetID   string    `json:"targetId" gorm:"type:varchar(36)"`
	Details    string    `json:"details,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
}

// TableName 表名
func (AdminAuditLog) TableName() string {
	return "admin_audit_log"
}
