package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/security"
	"campusdate/backend/internal/storage"
)

func TestProfileService_CreateProfile(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	svc := NewProfileService(store, nil)
	user := createTestUser(t, store, "amy@mit.edu")

	t.Run("用户不存在", func(t *testing.T) {
		_, err := svc.CreateProfile(ctx, "missing", completeProfileInput("x", domain.GenderFemale))
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("昵称必填", func(t *testing.T) {
		_, err := svc.CreateProfile(ctx, user.ID, CreateProfileInput{DisplayName: "   "})
		assert.ErrorIs(t, err, domain.ErrDisplayNameRequired)
	})

	t.Run("未满18岁", func(t *testing.T) {
		input := completeProfileInput("amy", domain.GenderFemale)
		young := time.Now().AddDate(-17, 0, 0)
		input.BirthDate = &young
		_, err := svc.CreateProfile(ctx, user.ID, input)
		assert.ErrorIs(t, err, domain.ErrUnderage)
	})

	t.Run("创建完整资料并规范化兴趣", func(t *testing.T) {
		input := completeProfileInput("amy", domain.GenderFemale)
		input.Interests = []string{" Hiking ", "hiking", "ＣＯＤＩＮＧ", "coding", ""}
		profile, err := svc.CreateProfile(ctx, user.ID, input)
		require.NoError(t, err)
		assert.True(t, profile.IsComplete)
		assert.Equal(t, []string{"Hiking", "CODING"}, profile.Interests)
		assert.Equal(t, "amy@mit.edu", profile.Email)
		assert.Equal(t, "mit.edu", profile.University)
	})

	t.Run("重复创建", func(t *testing.T) {
		_, err := svc.CreateProfile(ctx, user.ID, completeProfileInput("amy", domain.GenderFemale))
		assert.ErrorIs(t, err, storage.ErrProfileExists)
	})

	t.Run("缺少照片时资料不完整", func(t *testing.T) {
		other := createTestUser(t, store, "ben@mit.edu")
		input := completeProfileInput("ben", domain.GenderMale)
		input.Photos = []string{"  "}
		profile, err := svc.CreateProfile(ctx, other.ID, input)
		require.NoError(t, err)
		assert.False(t, profile.IsComplete)
		assert.Empty(t, profile.Photos)
	})
}

func TestProfileService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	svc := NewProfileService(store, nil)
	user := createTestUser(t, store, "cat@mit.edu")

	_, err := svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{})
	assert.ErrorIs(t, err, storage.ErrProfileNotFound)

	_, err = svc.CreateProfile(ctx, user.ID, CreateProfileInput{DisplayName: "cat"})
	require.NoError(t, err)

	bio := "  likes jazz  "
	gender := domain.GenderNonBinary
	birth := time.Now().AddDate(-20, 0, 0)
	updated, err := svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{
		Bio:       &bio,
		Gender:    &gender,
		BirthDate: &birth,
		Photos:    []string{"https://cdn.example.com/cat.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "likes jazz", updated.Bio)
	assert.True(t, updated.IsComplete)

	stored, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "cat", stored.DisplayName)
	assert.True(t, stored.IsComplete)

	tooMany := []string{"a", "b", "c", "d", "e", "f", "g"}
	_, err = svc.UpdateProfile(ctx, user.ID, domain.ProfileUpdate{Interests: tooMany})
	assert.ErrorIs(t, err, domain.ErrTooManyInterests)
}

func TestProfileService_Discover(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	profiles := NewProfileService(store, nil)
	matches := NewMatchService(store, nil)
	safety := NewSafetyService(store, nil)

	viewer := createTestUser(t, store, "viewer@mit.edu")
	liked := createTestUser(t, store, "liked@mit.edu")
	blocked := createTestUser(t, store, "blocked@mit.edu")
	incomplete := createTestUser(t, store, "incomplete@mit.edu")
	fresh := createTestUser(t, store, "fresh@mit.edu")

	for _, u := range []*domain.User{viewer, liked, blocked, fresh} {
		_, err := profiles.CreateProfile(ctx, u.ID, completeProfileInput(u.Email[:4], domain.GenderFemale))
		require.NoError(t, err)
	}
	_, err := profiles.CreateProfile(ctx, incomplete.ID, CreateProfileInput{DisplayName: "inc"})
	require.NoError(t, err)

	_, err = matches.Swipe(ctx, viewer.ID, SwipeInput{TargetUserID: liked.ID, Liked: true})
	require.NoError(t, err)
	_, err = safety.BlockUser(ctx, blocked.ID, viewer.ID, "")
	require.NoError(t, err)

	feed, err := profiles.Discover(ctx, viewer.ID, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, fresh.ID, feed[0].UserID)
}

func TestProfileService_PhotoPolicy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	svc := NewProfileService(store, nil)
	user := createTestUser(t, store, "dan@mit.edu")

	input := completeProfileInput("dan", domain.GenderMale)
	input.Photos = []string{"javascript:alert(1)"}
	_, err := svc.CreateProfile(ctx, user.ID, input)
	assert.ErrorIs(t, err, security.ErrInvalidMediaURL)

	input.Photos = []string{"https://cdn.example.com/dan.exe"}
	_, err = svc.CreateProfile(ctx, user.ID, input)
	assert.ErrorIs(t, err, security.ErrDangerousFileExt)
}
