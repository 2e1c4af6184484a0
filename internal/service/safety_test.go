package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage"
)

func TestSafetyService_Block(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	svc := NewSafetyService(store, nil)

	alice := createTestUser(t, store, "alice@mit.edu")
	bob := createTestUser(t, store, "bob@mit.edu")

	_, err := svc.BlockUser(ctx, alice.ID, alice.ID, "")
	assert.ErrorIs(t, err, ErrSelfAction)

	_, err = svc.BlockUser(ctx, alice.ID, "missing", "")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	first, err := svc.BlockUser(ctx, alice.ID, bob.ID, "spam")
	require.NoError(t, err)
	assert.Nil(t, first.ExpiresAt)

	again, err := svc.BlockUser(ctx, alice.ID, bob.ID, "spam")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "重复屏蔽返回已有记录")

	blocked, err := store.IsBlocked(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = svc.IsBlockedEitherWay(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, blocked, "反向同样视为屏蔽")

	list, err := svc.ListBlocked(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.UnblockUser(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, svc.UnblockUser(ctx, alice.ID, bob.ID), storage.ErrBlockNotFound)

	blocked, err = store.IsBlocked(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestSafetyService_ListBlockedSkipsExpired(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	svc := NewSafetyService(store, nil)

	alice := createTestUser(t, store, "alice@mit.edu")
	bob := createTestUser(t, store, "bob@mit.edu")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, store.CreateBlock(ctx, &domain.BlockedUser{BlockerID: alice.ID, BlockedID: bob.ID, ExpiresAt: &past}))

	list, err := svc.ListBlocked(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSafetyService_ReportUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	svc := NewSafetyService(store, nil)

	alice := createTestUser(t, store, "alice@mit.edu")
	bob := createTestUser(t, store, "bob@mit.edu")

	t.Run("原因必填", func(t *testing.T) {
		_, err := svc.ReportUser(ctx, alice.ID, ReportInput{ReportedUserID: bob.ID, Reason: " "})
		assert.ErrorIs(t, err, domain.ErrReportReasonRequired)
	})

	t.Run("不能举报自己", func(t *testing.T) {
		_, err := svc.ReportUser(ctx, alice.ID, ReportInput{ReportedUserID: alice.ID, Reason: "x"})
		assert.ErrorIs(t, err, ErrSelfAction)
	})

	t.Run("创建待处理举报", func(t *testing.T) {
		report, err := svc.ReportUser(ctx, alice.ID, ReportInput{ReportedUserID: bob.ID, Reason: "harassment", Details: " rude "})
		require.NoError(t, err)
		assert.Equal(t, domain.ReportPending, report.Status)
		assert.Equal(t, "rude", report.Details)

		stored, err := store.GetReport(ctx, report.ID)
		require.NoError(t, err)
		assert.Equal(t, "harassment", stored.Reason)
	})
}
