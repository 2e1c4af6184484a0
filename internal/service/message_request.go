package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage"
)

// ErrRequestInFlight 同一请求的上一次处理尚未完成
var ErrRequestInFlight = errors.New("this message request is already being processed")

// DefaultCooldownMessage 服务端未返回截止时间时展示的文案
const DefaultCooldownMessage = "30 days"

// RejectOutcome 拒绝结果
type RejectOutcome struct {
	BlockedUntil *time.Time `json:"blockedUntil"`
}

// CooldownMessage 返回冷却期展示文案
func (o *RejectOutcome) CooldownMessage() string {
	if o == nil || o.BlockedUntil == nil {
		return DefaultCooldownMessage
	}
	return "until " + o.BlockedUntil.UTC().Format("January 2, 2006")
}

// MessageRequestService 消息请求网关
//
// 状态流转、归属校验与冷却期计算全部由 DataService 完成，这里只负责转发、
// 记录日志以及拦截本进程内同一请求的重复提交。
type MessageRequestService struct {
	data   storage.DataService
	logger *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewMessageRequestService 创建消息请求网关
func NewMessageRequestService(data storage.DataService, logger *zap.Logger) *MessageRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageRequestService{
		data:     data,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// SendRequest 发送消息请求
func (s *MessageRequestService) SendRequest(ctx context.Context, senderID, recipientID, content string) error {
	if _, err := s.data.CreateMessageRequest(ctx, senderID, recipientID, content); err != nil {
		s.logger.Warn("send message request failed",
			zap.String("senderID", senderID),
			zap.String("recipientID", recipientID),
			zap.Error(err))
		return fmt.Errorf("send message request: %w", err)
	}
	return nil
}

// AcceptRequest 接受请求，返回会话 ID
func (s *MessageRequestService) AcceptRequest(ctx context.Context, requestID, recipientID string) (string, error) {
	if !s.acquire(requestID) {
		return "", ErrRequestInFlight
	}
	defer s.release(requestID)

	conversationID, err := s.data.AcceptMessageRequest(ctx, requestID, recipientID)
	if err != nil {
		s.logger.Warn("accept message request failed",
			zap.String("requestID", requestID),
			zap.String("recipientID", recipientID),
			zap.Error(err))
		return "", fmt.Errorf("accept message request: %w", err)
	}
	return conversationID, nil
}

// RejectRequest 拒绝请求
func (s *MessageRequestService) RejectRequest(ctx context.Context, requestID, recipientID string) (*RejectOutcome, error) {
	if !s.acquire(requestID) {
		return nil, ErrRequestInFlight
	}
	defer s.release(requestID)

	until, err := s.data.RejectMessageRequest(ctx, requestID, recipientID)
	if err != nil {
		s.logger.Warn("reject message request failed",
			zap.String("requestID", requestID),
			zap.String("recipientID", recipientID),
			zap.Error(err))
		return nil, fmt.Errorf("reject message request: %w", err)
	}
	return &RejectOutcome{BlockedUntil: until}, nil
}

// ListPending 列出待处理请求
func (s *MessageRequestService) ListPending(ctx context.Context, recipientID string) ([]domain.MessageRequest, error) {
	requests, err := s.data.ListPendingMessageRequests(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list pending message requests: %w", err)
	}
	return requests, nil
}

func (s *MessageRequestService) acquire(requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[requestID]; busy {
		return false
	}
	s.inFlight[requestID] = struct{}{}
	return true
}

func (s *MessageRequestService) release(requestID string) {
	s.mu.Lock()
	delete(s.inFlight, requestID)
	s.mu.Unlock()
}
