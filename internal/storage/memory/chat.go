package memory

import (
	"context"
	"sort"
	"time"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

// ensureConversationLocked 获取或创建会话，调用方需持有写锁
func (s *Store) ensureConversationLocked(userA, userB string, now time.Time) (*domain.Conversation, bool) {
	key := pairKey(userA, userB)
	if id, ok := s.byPair[key]; ok {
		return s.conversations[id], false
	}
	u1, u2 := domain.OrderedPair(userA, userB)
	conv := &domain.Conversation{
		ID:        newID(),
		User1ID:   u1,
		User2ID:   u2,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conv.ID] = conv
	s.byPair[key] = conv.ID
	return conv, true
}

// appendMessageLocked 写入消息与审核日志并刷新会话时间，调用方需持有写锁
func (s *Store) appendMessageLocked(conv *domain.Conversation, msg *domain.Message, now time.Time) {
	if msg.ID == "" {
		msg.ID = newID()
	}
	msg.ConversationID = conv.ID
	msg.CreatedAt = now

	cp := *msg
	s.messages[conv.ID] = append(s.messages[conv.ID], &cp)
	s.messageByID[cp.ID] = &cp
	conv.UpdatedAt = now

	logEntry := &domain.MessageLog{
		ID:             newID(),
		MessageID:      cp.ID,
		ConversationID: conv.ID,
		SenderID:       cp.SenderID,
		Content:        cp.Content,
		CreatedAt:      now,
	}
	s.messageLogs[logEntry.ID] = logEntry
}

// EnsureConversation 获取或创建两人的会话。
func (s *Store) EnsureConversation(ctx context.Context, userA, userB string) (*domain.Conversation, bool, error) {
	s.mu.Lock()
	conv, created := s.ensureConversationLocked(userA, userB, s.now())
	cp := *conv
	s.mu.Unlock()

	if created {
		s.publish(ctx, realtime.NewEvent(realtime.TableConversations, realtime.ActionInsert, cp.ID, cp, cp.User1ID, cp.User2ID))
	}
	return &cp, created, nil
}

// GetConversation 根据 ID 获取会话。
func (s *Store) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, storage.ErrConversationNotFound
	}
	cp := *conv
	return &cp, nil
}

// GetConversationByPair 根据用户对获取会话。
func (s *Store) GetConversationByPair(_ context.Context, userA, userB string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPair[pairKey(userA, userB)]
	if !ok {
		return nil, storage.ErrConversationNotFound
	}
	cp := *s.conversations[id]
	return &cp, nil
}

// ListConversations 列出用户参与的会话，最近活跃的在前。
func (s *Store) ListConversations(_ context.Context, userID string) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Conversation, 0)
	for _, c := range s.conversations {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// CreateMessage 写入一条消息。
func (s *Store) CreateMessage(ctx context.Context, message *domain.Message) error {
	s.mu.Lock()
	conv, ok := s.conversations[message.ConversationID]
	if !ok {
		s.mu.Unlock()
		return storage.ErrConversationNotFound
	}
	s.appendMessageLocked(conv, message, s.now())
	msg := *message
	users := []string{conv.User1ID, conv.User2ID}
	s.mu.Unlock()

	s.publish(ctx, realtime.NewEvent(realtime.TableMessages, realtime.ActionInsert, msg.ID, msg, users...))
	return nil
}

// GetMessage 根据 ID 获取消息。
func (s *Store) GetMessage(_ context.Context, id string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messageByID[id]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

// ListMessages 返回会话最近的 limit 条消息（正序），limit<=0 返回全部。
func (s *Store) ListMessages(_ context.Context, conversationID string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, storage.ErrConversationNotFound
	}
	all := s.messages[conversationID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]domain.Message, 0, len(all))
	for _, m := range all {
		out = append(out, *m)
	}
	return out, nil
}

// GetLastMessage 获取会话最后一条消息。
func (s *Store) GetLastMessage(_ context.Context, conversationID string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[conversationID]
	if len(all) == 0 {
		return nil, storage.ErrMessageNotFound
	}
	cp := *all[len(all)-1]
	return &cp, nil
}

// CountUnread 统计 readerID 未读的消息数。
func (s *Store) CountUnread(_ context.Context, conversationID, readerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.messages[conversationID] {
		if m.SenderID != readerID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// MarkMessagesRead 标记已读，返回更新条数。
func (s *Store) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int, error) {
	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		s.mu.Unlock()
		return 0, storage.ErrConversationNotFound
	}
	n := 0
	for _, m := range s.messages[conversationID] {
		if m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	other := conv.OtherParticipant(readerID)
	s.mu.Unlock()

	if n > 0 {
		s.publish(ctx, realtime.NewEvent(realtime.TableMessages, realtime.ActionUpdate, conversationID,
			map[string]any{"conversationId": conversationID, "readBy": readerID, "count": n}, other))
	}
	return n, nil
}
