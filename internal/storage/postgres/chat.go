package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

// ensureConversation 获取或创建会话，并发创建时依赖唯一索引去重
func ensureConversation(tx *gorm.DB, userA, userB string, now time.Time) (*domain.Conversation, bool, error) {
	u1, u2 := domain.OrderedPair(userA, userB)
	conv := &domain.Conversation{
		ID:        newID(),
		User1ID:   u1,
		User2ID:   u2,
		CreatedAt: now,
		UpdatedAt: now,
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(conv)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		return conv, true, nil
	}

	var existing domain.Conversation
	if err := tx.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

// insertMessage 写入消息、审核日志并刷新会话时间
func insertMessage(tx *gorm.DB, msg *domain.Message, now time.Time) error {
	if msg.ID == "" {
		msg.ID = newID()
	}
	msg.CreatedAt = now
	if err := tx.Create(msg).Error; err != nil {
		return err
	}
	if err := tx.Model(&domain.Conversation{}).Where("id = ?", msg.ConversationID).Update("updated_at", now).Error; err != nil {
		return err
	}
	return tx.Create(&domain.MessageLog{
		ID:             newID(),
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		CreatedAt:      now,
	}).Error
}

// EnsureConversation 获取或创建两人的会话
func (s *Store) EnsureConversation(ctx context.Context, userA, userB string) (*domain.Conversation, bool, error) {
	conv, created, err := ensureConversation(s.db.WithContext(ctx), userA, userB, s.now())
	if err != nil {
		return nil, false, err
	}
	if created {
		s.publish(ctx, realtime.NewEvent(realtime.TableConversations, realtime.ActionInsert, conv.ID, conv, conv.User1ID, conv.User2ID))
	}
	return conv, created, nil
}

// GetConversation 根据 ID 获取会话
func (s *Store) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, mapNotFound(err, storage.ErrConversationNotFound)
	}
	return &conv, nil
}

// GetConversationByPair 根据用户对获取会话
func (s *Store) GetConversationByPair(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	u1, u2 := domain.OrderedPair(userA, userB)
	var conv domain.Conversation
	if err := s.db.WithContext(ctx).Where("user1_id = ? AND user2_id = ?", u1, u2).First(&conv).Error; err != nil {
		return nil, mapNotFound(err, storage.ErrConversationNotFound)
	}
	return &conv, nil
}

// ListConversations 列出用户参与的会话
func (s *Store) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	convs := make([]domain.Conversation, 0)
	err := s.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&convs).Error
	return convs, err
}

// CreateMessage 写入一条消息
func (s *Store) CreateMessage(ctx context.Context, message *domain.Message) error {
	var conv domain.Conversation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", message.ConversationID).First(&conv).Error; err != nil {
			return mapNotFound(err, storage.ErrConversationNotFound)
		}
		return insertMessage(tx, message, s.now())
	})
	if err != nil {
		return err
	}

	s.publish(ctx, realtime.NewEvent(realtime.TableMessages, realtime.ActionInsert, message.ID, message, conv.User1ID, conv.User2ID))
	return nil
}

// GetMessage 根据 ID 获取消息
func (s *Store) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	var msg domain.Message
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, mapNotFound(err, storage.ErrMessageNotFound)
	}
	return &msg, nil
}

// ListMessages 返回会话最近的 limit 条消息（正序）
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	msgs := make([]domain.Message, 0)
	if err := query.Find(&msgs).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// GetLastMessage 获取会话最后一条消息
func (s *Store) GetLastMessage(ctx context.Context, conversationID string) (*domain.Message, error) {
	var msg domain.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&msg).Error
	if err != nil {
		return nil, mapNotFound(err, storage.ErrMessageNotFound)
	}
	return &msg, nil
}

// CountUnread 统计未读消息数
func (s *Store) CountUnread(ctx context.Context, conversationID, readerID string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Count(&n).Error
	return int(n), err
}

// MarkMessagesRead 标记已读
func (s *Store) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int, error) {
	conv, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Model(&domain.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, result.Error
	}
	n := int(result.RowsAffected)
	if n > 0 {
		s.publish(ctx, realtime.NewEvent(realtime.TableMessages, realtime.ActionUpdate, conversationID,
			map[string]any{"conversationId": conversationID, "readBy": readerID, "count": n}, conv.OtherParticipant(readerID)))
	}
	return n, nil
}
