package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage"
)

func TestVerificationService(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	svc := NewVerificationService(store, nil)
	profiles := NewProfileService(store, nil)

	admin := createTestUser(t, store, "admin@mit.edu")
	alice := createTestUser(t, store, "alice@mit.edu")
	bob := createTestUser(t, store, "bob@mit.edu")
	_, err := profiles.CreateProfile(ctx, alice.ID, completeProfileInput("alice", domain.GenderFemale))
	require.NoError(t, err)

	t.Run("提交参数校验", func(t *testing.T) {
		_, err := svc.Submit(ctx, alice.ID, SubmitInput{Type: "passport", DocumentURL: "https://x"})
		assert.ErrorIs(t, err, domain.ErrInvalidVerification)
		_, err = svc.Submit(ctx, alice.ID, SubmitInput{Type: domain.VerificationStudentID})
		assert.ErrorIs(t, err, domain.ErrDocumentURLRequired)
	})

	var pending *domain.Verification
	t.Run("每个用户只能有一条待审核", func(t *testing.T) {
		var err error
		pending, err = svc.Submit(ctx, alice.ID, SubmitInput{Type: domain.VerificationStudentID, DocumentURL: "https://docs/a.png"})
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationPending, pending.Status)

		_, err = svc.Submit(ctx, alice.ID, SubmitInput{Type: domain.VerificationSelfie, DocumentURL: "https://docs/b.png"})
		assert.ErrorIs(t, err, storage.ErrVerificationPending)
	})

	t.Run("通过后用户与资料标记为已认证并写审计", func(t *testing.T) {
		v, err := svc.Approve(ctx, admin.ID, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationApproved, v.Status)
		require.NotNil(t, v.ReviewedBy)
		assert.Equal(t, admin.ID, *v.ReviewedBy)

		user, err := store.GetUserByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, user.IsVerified)

		profile, err := store.GetProfileByUserID(ctx, alice.ID)
		require.NoError(t, err)
		assert.True(t, profile.IsVerified)

		logs, err := store.ListAuditLogs(ctx, 10)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, domain.AuditApproveVerification, logs[0].Action)
		assert.Equal(t, pending.ID, logs[0].TargetID)
	})

	t.Run("已审核的不能再次审核", func(t *testing.T) {
		_, err := svc.Reject(ctx, admin.ID, pending.ID, "blurry")
		assert.ErrorIs(t, err, ErrVerificationReviewed)
	})

	t.Run("驳回需要原因", func(t *testing.T) {
		v, err := svc.Submit(ctx, bob.ID, SubmitInput{Type: domain.VerificationGovernmentID, DocumentURL: "https://docs/c.png"})
		require.NoError(t, err)

		_, err = svc.Reject(ctx, admin.ID, v.ID, "  ")
		assert.ErrorIs(t, err, domain.ErrRejectReasonRequired)

		rejected, err := svc.Reject(ctx, admin.ID, v.ID, "blurry")
		require.NoError(t, err)
		assert.Equal(t, "blurry", rejected.RejectionReason)

		user, err := store.GetUserByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.False(t, user.IsVerified)

		mine, err := svc.ListMine(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, domain.VerificationRejected, mine[0].Status)
	})
}
