package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/security"
	"campusdate/backend/internal/storage"
)

// 消息分页
const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 200
)

// ChatService 会话与消息服务
type ChatService struct {
	store  storage.Store
	filter *security.ContentFilter
	logger *zap.Logger
}

// NewChatService 创建聊天服务
func NewChatService(store storage.Store, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{store: store, filter: security.NewContentFilter(), logger: logger}
}

// ListConversations 列出会话，最近活跃的在前
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	convs, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	others := make([]string, 0, len(convs))
	for i := range convs {
		others = append(others, convs[i].OtherParticipant(userID))
	}
	profiles, err := s.store.ListProfilesByUserIDs(ctx, others)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]*domain.Profile, len(profiles))
	for i := range profiles {
		byUser[profiles[i].UserID] = &profiles[i]
	}

	out := make([]domain.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		other := conv.OtherParticipant(userID)
		summary := domain.ConversationSummary{
			Conversation: conv,
			OtherUserID:  other,
			OtherUser:    byUser[other],
		}

		last, err := s.store.GetLastMessage(ctx, conv.ID)
		switch {
		case err == nil:
			summary.LastMessage = last
		case !errors.Is(err, storage.ErrMessageNotFound):
			return nil, err
		}

		if summary.UnreadCount, err = s.store.CountUnread(ctx, conv.ID, userID); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

// ListMessages 列出会话消息，仅参与者可见
func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]domain.Message, error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	return s.store.ListMessages(ctx, conversationID, limit)
}

// SendMessage 发送消息
func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderID, content string) (*domain.Message, error) {
	conv, err := s.participantConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateMessageContent(content); err != nil {
		return nil, err
	}

	other := conv.OtherParticipant(senderID)
	blocked, err := blockedEitherWay(ctx, s.store, senderID, other)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrUserBlocked
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		s.logger.Error("create message failed",
			zap.String("conversationID", conv.ID),
			zap.String("senderID", senderID),
			zap.Error(err))
		return nil, err
	}
	s.autoFlag(ctx, msg)
	return msg, nil
}

// autoFlag 可疑消息自动标记到审核日志，失败不影响发送
func (s *ChatService) autoFlag(ctx context.Context, msg *domain.Message) {
	flagged, reason := s.filter.Scan(msg.Content)
	if !flagged {
		return
	}
	logs, err := s.store.ListMessageLogs(ctx, domain.MessageLogFilter{MessageID: msg.ID, Limit: 1})
	if err != nil || len(logs) == 0 {
		s.logger.Warn("message log not found for auto flag", zap.String("messageID", msg.ID), zap.Error(err))
		return
	}
	entry := logs[0]
	entry.Flagged = true
	entry.FlagReason = "auto: " + reason
	if err := s.store.UpdateMessageLog(ctx, &entry); err != nil {
		s.logger.Warn("auto flag message failed", zap.String("messageID", msg.ID), zap.Error(err))
		return
	}
	s.logger.Info("message auto flagged", zap.String("messageID", msg.ID), zap.String("reason", reason))
}

// MarkRead 将对方发来的消息标记为已读
func (s *ChatService) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	if _, err := s.participantConversation(ctx, conversationID, readerID); err != nil {
		return 0, err
	}
	return s.store.MarkMessagesRead(ctx, conversationID, readerID)
}

func (s *ChatService) participantConversation(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}
