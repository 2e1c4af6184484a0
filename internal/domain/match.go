package domain

import "time"

// Match 一次滑动记录（喜欢或跳过）
type Match struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID        string    `json:"userId" gorm:"uniqueIndex:idx_match_pair;type:varchar(36);not null"`
	MatchedUserID string    `json:"matchedUserId" gorm:"uniqueIndex:idx_match_pair;type:varchar(36);not null;index"`
	IsLiked       bool      `json:"isLiked"`
	IsSuperLike   bool      `json:"isSuperLike"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SwipeResult 滑动结果
type SwipeResult struct {
	Match          *Match `json:"match"`
	Matched        bool   `json:"matched"`
	ConversationID string `json:"conversationId,omitempty"`
}

// MutualMatch 互相喜欢的对象
type MutualMatch struct {
	UserID         string    `json:"userId"`
	Profile        *Profile  `json:"profile,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	MatchedAt      time.Time `json:"matchedAt"`
}
