package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/security"
	"campusdate/backend/internal/storage"
)

// VerificationService 身份认证服务
type VerificationService struct {
	store  storage.Store
	docs   *security.MediaPolicy
	audit  *auditRecorder
	logger *zap.Logger
	now    func() time.Time
}

// NewVerificationService 创建认证服务
func NewVerificationService(store storage.Store, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{
		store:  store,
		docs:   security.DocumentPolicy(),
		audit:  &auditRecorder{store: store, logger: logger},
		logger: logger,
		now:    time.Now,
	}
}

// SubmitInput 提交认证参数
type SubmitInput struct {
	Type        domain.VerificationType `json:"verificationType"`
	DocumentURL string                  `json:"documentUrl"`
}

// Submit 提交认证申请，每个用户同时只有一条待审核
func (s *VerificationService) Submit(ctx context.Context, userID string, input SubmitInput) (*domain.Verification, error) {
	if !input.Type.Valid() {
		return nil, domain.ErrInvalidVerification
	}
	url := strings.TrimSpace(input.DocumentURL)
	if url == "" {
		return nil, domain.ErrDocumentURLRequired
	}
	if err := s.docs.CheckURL(url); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	v := &domain.Verification{
		UserID:      userID,
		Type:        input.Type,
		DocumentURL: url,
		Status:      domain.VerificationPending,
	}
	if err := s.store.CreateVerification(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ListMine 列出用户自己的认证记录
func (s *VerificationService) ListMine(ctx context.Context, userID string) ([]domain.Verification, error) {
	return s.store.ListVerificationsByUser(ctx, userID)
}

// Approve 通过认证并标记用户已认证
func (s *VerificationService) Approve(ctx context.Context, adminID, verificationID string) (*domain.Verification, error) {
	v, err := s.review(ctx, adminID, verificationID, domain.VerificationApproved, "")
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, v.UserID)
	if err != nil {
		return nil, err
	}
	user.IsVerified = true
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfileByUserID(ctx, v.UserID)
	switch {
	case err == nil:
		profile.IsVerified = true
		if err := s.store.UpdateProfile(ctx, profile); err != nil {
			return nil, err
		}
	case !errors.Is(err, storage.ErrProfileNotFound):
		return nil, err
	}

	s.audit.record(ctx, adminID, domain.AuditApproveVerification, "verification", v.ID, "user="+v.UserID)
	return v, nil
}

// Reject 驳回认证，必须给出原因
func (s *VerificationService) Reject(ctx context.Context, adminID, verificationID, reason string) (*domain.Verification, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrRejectReasonRequired
	}
	v, err := s.review(ctx, adminID, verificationID, domain.VerificationRejected, reason)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, adminID, domain.AuditRejectVerification, "verification", v.ID, reason)
	return v, nil
}

func (s *VerificationService) review(ctx context.Context, adminID, id string, status domain.VerificationStatus, reason string) (*domain.Verification, error) {
	v, err := s.store.GetVerification(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.VerificationPending {
		return nil, ErrVerificationReviewed
	}

	now := s.now()
	v.Status = status
	v.RejectionReason = reason
	v.ReviewedBy = &adminID
	v.ReviewedAt = &now
	if err := s.store.UpdateVerification(ctx, v); err != nil {
		return nil, err
	}
	s.logger.Info("verification reviewed",
		zap.String("verificationID", v.ID),
		zap.String("adminID", adminID),
		zap.String("status", string(status)))
	return v, nil
}
