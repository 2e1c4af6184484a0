package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

// CreateMessageRequest 创建消息请求。
func (s *Store) CreateMessageRequest(ctx context.Context, senderID, recipientID, content string) (*domain.MessageRequest, error) {
	if senderID == recipientID {
		return nil, storage.ErrSelfRequest
	}
	if strings.TrimSpace(content) == "" {
		return nil, storage.ErrEmptyContent
	}

	s.mu.Lock()
	if _, ok := s.users[recipientID]; !ok {
		s.mu.Unlock()
		return nil, storage.ErrUserNotFound
	}
	if _, ok := s.byPair[pairKey(senderID, recipientID)]; ok {
		s.mu.Unlock()
		return nil, storage.ErrConversationExists
	}
	for _, r := range s.requests {
		if r.SenderID == senderID && r.RecipientID == recipientID && r.Status == domain.RequestPending {
			s.mu.Unlock()
			return nil, storage.ErrRequestExists
		}
	}
	now := s.now()
	if s.blockedEitherWayLocked(recipientID, senderID, now) {
		s.mu.Unlock()
		return nil, storage.ErrSenderBlocked
	}

	req := &domain.MessageRequest{
		ID:             newID(),
		SenderID:       senderID,
		RecipientID:    recipientID,
		InitialMessage: content,
		Status:         domain.RequestPending,
		CreatedAt:      now,
	}
	s.requests[req.ID] = req
	cp := *req
	s.mu.Unlock()

	s.publish(ctx, realtime.NewEvent(realtime.TableMessageRequests, realtime.ActionInsert, cp.ID, cp, recipientID, senderID))
	return &cp, nil
}

// pendingRequestLocked 校验请求存在、属于 recipientID 且仍待处理
func (s *Store) pendingRequestLocked(requestID, recipientID string) (*domain.MessageRequest, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return nil, storage.ErrRequestNotFound
	}
	if req.RecipientID != recipientID {
		return nil, storage.ErrNotRecipient
	}
	if req.Status != domain.RequestPending {
		return nil, storage.ErrRequestNotPending
	}
	return req, nil
}

// AcceptMessageRequest 接受请求：建立（或复用）会话，写入首条消息。
func (s *Store) AcceptMessageRequest(ctx context.Context, requestID, recipientID string) (string, error) {
	s.mu.Lock()
	req, err := s.pendingRequestLocked(requestID, recipientID)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}

	now := s.now()
	conv, created := s.ensureConversationLocked(req.SenderID, req.RecipientID, now)
	msg := &domain.Message{
		SenderID: req.SenderID,
		Content:  req.InitialMessage,
	}
	s.appendMessageLocked(conv, msg, now)

	req.Status = domain.RequestAccepted
	req.RespondedAt = &now
	req.ConversationID = conv.ID

	reqCopy, convCopy, msgCopy := *req, *conv, *msg
	s.mu.Unlock()

	users := []string{reqCopy.SenderID, reqCopy.RecipientID}
	events := []realtime.Event{
		realtime.NewEvent(realtime.TableMessageRequests, realtime.ActionUpdate, reqCopy.ID, reqCopy, users...),
	}
	if created {
		events = append(events, realtime.NewEvent(realtime.TableConversations, realtime.ActionInsert, convCopy.ID, convCopy, users...))
	}
	events = append(events, realtime.NewEvent(realtime.TableMessages, realtime.ActionInsert, msgCopy.ID, msgCopy, users...))
	s.publish(ctx, events...)

	return convCopy.ID, nil
}

// RejectMessageRequest 拒绝请求并对发送方施加冷却期。
func (s *Store) RejectMessageRequest(ctx context.Context, requestID, recipientID string) (*time.Time, error) {
	s.mu.Lock()
	req, err := s.pendingRequestLocked(requestID, recipientID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	now := s.now()
	req.Status = domain.RequestRejected
	req.RespondedAt = &now

	var blockedUntil *time.Time
	if s.cooldown > 0 {
		until := now.Add(s.cooldown)
		blockedUntil = &until
		s.blocks = append(s.blocks, &domain.BlockedUser{
			ID:        newID(),
			BlockerID: req.RecipientID,
			BlockedID: req.SenderID,
			Reason:    domain.BlockReasonRequestDeclined,
			ExpiresAt: &until,
			CreatedAt: now,
		})
	}
	reqCopy := *req
	s.mu.Unlock()

	s.publish(ctx, realtime.NewEvent(realtime.TableMessageRequests, realtime.ActionUpdate, reqCopy.ID, reqCopy, reqCopy.SenderID, reqCopy.RecipientID))
	return blockedUntil, nil
}

// ListPendingMessageRequests 列出发给 recipientID 的待处理请求，最新的在前。
func (s *Store) ListPendingMessageRequests(_ context.Context, recipientID string) ([]domain.MessageRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MessageRequest, 0)
	for _, r := range s.requests {
		if r.RecipientID == recipientID && r.Status == domain.RequestPending {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
