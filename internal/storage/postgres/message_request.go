package postgres

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/realtime"
	"campusdate/backend/internal/storage"
)

// CreateMessageRequest 创建消息请求
func (s *Store) CreateMessageRequest(ctx context.Context, senderID, recipientID, content string) (*domain.MessageRequest, error) {
	if senderID == recipientID {
		return nil, storage.ErrSelfRequest
	}
	if strings.TrimSpace(content) == "" {
		return nil, storage.ErrEmptyContent
	}

	now := s.now()
	req := &domain.MessageRequest{
		ID:             newID(),
		SenderID:       senderID,
		RecipientID:    recipientID,
		InitialMessage: content,
		Status:         domain.RequestPending,
		CreatedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁住接收方用户行，同一接收方的并发发送在此排队
		var recipient domain.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", recipientID).First(&recipient).Error
		if err != nil {
			return mapNotFound(err, storage.ErrUserNotFound)
		}

		var count int64
		u1, u2 := domain.OrderedPair(senderID, recipientID)
		if err := tx.Model(&domain.Conversation{}).Where("user1_id = ? AND user2_id = ?", u1, u2).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return storage.ErrConversationExists
		}

		err = tx.Model(&domain.MessageRequest{}).
			Where("sender_id = ? AND recipient_id = ? AND status = ?", senderID, recipientID, domain.RequestPending).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return storage.ErrRequestExists
		}

		blocked, err := blockedEitherWay(tx, recipientID, senderID, now)
		if err != nil {
			return err
		}
		if blocked {
			return storage.ErrSenderBlocked
		}

		return tx.Create(req).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.NewEvent(realtime.TableMessageRequests, realtime.ActionInsert, req.ID, req, recipientID, senderID))
	return req, nil
}

// lockPendingRequest 对请求行加锁并校验归属与状态
func lockPendingRequest(tx *gorm.DB, requestID, recipientID string) (*domain.MessageRequest, error) {
	var req domain.MessageRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", requestID).First(&req).Error
	if err != nil {
		return nil, mapNotFound(err, storage.ErrRequestNotFound)
	}
	if req.RecipientID != recipientID {
		return nil, storage.ErrNotRecipient
	}
	if req.Status != domain.RequestPending {
		return nil, storage.ErrRequestNotPending
	}
	return &req, nil
}

// AcceptMessageRequest 接受请求：建立（或复用）会话，写入首条消息
func (s *Store) AcceptMessageRequest(ctx context.Context, requestID, recipientID string) (string, error) {
	var (
		req     *domain.MessageRequest
		conv    *domain.Conversation
		created bool
		msg     *domain.Message
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = lockPendingRequest(tx, requestID, recipientID)
		if err != nil {
			return err
		}

		now := s.now()
		conv, created, err = ensureConversation(tx, req.SenderID, req.RecipientID, now)
		if err != nil {
			return err
		}

		msg = &domain.Message{
			ConversationID: conv.ID,
			SenderID:       req.SenderID,
			Content:        req.InitialMessage,
		}
		if err := insertMessage(tx, msg, now); err != nil {
			return err
		}

		req.Status = domain.RequestAccepted
		req.RespondedAt = &now
		req.ConversationID = conv.ID
		return tx.Model(req).Updates(map[string]any{
			"status":          req.Status,
			"responded_at":    now,
			"conversation_id": conv.ID,
		}).Error
	})
	if err != nil {
		return "", err
	}

	users := []string{req.SenderID, req.RecipientID}
	events := []realtime.Event{
		realtime.NewEvent(realtime.TableMessageRequests, realtime.ActionUpdate, req.ID, req, users...),
	}
	if created {
		events = append(events, realtime.NewEvent(realtime.TableConversations, realtime.ActionInsert, conv.ID, conv, users...))
	}
	events = append(events, realtime.NewEvent(realtime.TableMessages, realtime.ActionInsert, msg.ID, msg, users...))
	s.publish(ctx, events...)

	return conv.ID, nil
}

// RejectMessageRequest 拒绝请求并对发送方施加冷却期
func (s *Store) RejectMessageRequest(ctx context.Context, requestID, recipientID string) (*time.Time, error) {
	var (
		req          *domain.MessageRequest
		blockedUntil *time.Time
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = lockPendingRequest(tx, requestID, recipientID)
		if err != nil {
			return err
		}

		now := s.now()
		req.Status = domain.RequestRejected
		req.RespondedAt = &now
		err = tx.Model(req).Updates(map[string]any{
			"status":       req.Status,
			"responded_at": now,
		}).Error
		if err != nil {
			return err
		}

		if s.cooldown <= 0 {
			return nil
		}
		until := now.Add(s.cooldown)
		blockedUntil = &until
		return tx.Create(&domain.BlockedUser{
			ID:        newID(),
			BlockerID: req.RecipientID,
			BlockedID: req.SenderID,
			Reason:    domain.BlockReasonRequestDeclined,
			ExpiresAt: &until,
			CreatedAt: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.NewEvent(realtime.TableMessageRequests, realtime.ActionUpdate, req.ID, req, req.SenderID, req.RecipientID))
	return blockedUntil, nil
}

// ListPendingMessageRequests 列出发给 recipientID 的待处理请求，最新的在前
func (s *Store) ListPendingMessageRequests(ctx context.Context, recipientID string) ([]domain.MessageRequest, error) {
	requests := make([]domain.MessageRequest, 0)
	err := s.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", recipientID, domain.RequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}
