package domain

import "time"

// Message 会话中的一条消息
type Message struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ConversationID string    `json:"conversationId" gorm:"type:varchar(36);not null;index"`
	SenderID       string    `json:"senderId" gorm:"type:varchar(36);not null;index"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	IsRead         bool      `json:"isRead" gorm:"default:false"`
	CreatedAt      time.Time `json:"createdAt" gorm:"index"`
}
