package domain

import "time"

// 屏蔽原因
const (
	BlockReasonRequestDeclined = "message request declined"
)

// BlockedUser 屏蔽记录，ExpiresAt 为空表示永久屏蔽
type BlockedUser struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BlockerID string     `json:"blockerId" gorm:"type:varchar(36);not null;index:idx_block_pair"`
	BlockedID string     `json:"blockedId" gorm:"type:varchar(36);not null;index:idx_block_pair"`
	Reason    string     `json:"reason,omitempty" gorm:"type:varchar(255)"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" gorm:"index"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ActiveAt 判断屏蔽在给定时间是否生效
func (b *BlockedUser) ActiveAt(now time.Time) bool {
	return b.ExpiresAt == nil || now.Before(*b.ExpiresAt)
}
