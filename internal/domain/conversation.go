package domain

import "time"

// Conversation 两个用户之间的会话
//
// User1ID 与 User2ID 按字典序存放，同一对用户只有一条记录。
type Conversation struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	User1ID   string    `json:"user1Id" gorm:"uniqueIndex:idx_conversation_pair;type:varchar(36);not null"`
	User2ID   string    `json:"user2Id" gorm:"uniqueIndex:idx_conversation_pair;type:varchar(36);not null;index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"index"`
}

// OrderedPair 返回按字典序排列的用户对
func OrderedPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// HasParticipant 判断用户是否为会话参与者
func (c *Conversation) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// OtherParticipant 返回会话中的另一方
func (c *Conversation) OtherParticipant(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// ConversationSummary 会话列表项
type ConversationSummary struct {
	Conversation
	OtherUserID string   `json:"otherUserId"`
	OtherUser   *Profile `json:"otherUser,omitempty"`
	LastMessage *Message `json:"lastMessage,omitempty"`
	UnreadCount int      `json:"unreadCount"`
}
