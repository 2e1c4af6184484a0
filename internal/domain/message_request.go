package domain

import "time"

// MessageRequestStatus 消息请求状态
type MessageRequestStatus string

const (
	RequestPending  MessageRequestStatus = "pending"
	RequestAccepted MessageRequestStatus = "accepted"
	RequestRejected MessageRequestStatus = "rejected"
)

// IsTerminal accepted 与 rejected 为终态
func (s MessageRequestStatus) IsTerminal() bool {
	return s == RequestAccepted || s == RequestRejected
}

// MessageRequest 首次联系请求，接收方接受后才会建立会话
type MessageRequest struct {
	ID             string               `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderID       string               `json:"senderId" gorm:"type:varchar(36);not null;index"`
	RecipientID    string               `json:"recipientId" gorm:"type:varchar(36);not null;index"`
	InitialMessage string               `json:"initialMessage" gorm:"type:text;not null"`
	Status         MessageRequestStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ConversationID string               `json:"conversationId,omitempty" gorm:"type:varchar(36)"`
	CreatedAt      time.Time            `json:"createdAt"`
	RespondedAt    *time.Time           `json:"respondedAt,omitempty"`
}
