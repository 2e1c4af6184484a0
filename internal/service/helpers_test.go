package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"campusdate/backend/internal/domain"
	"campusdate/backend/internal/storage/memory"
)

func newTestStore() *memory.Store {
	return memory.NewStore(30 * 24 * time.Hour)
}

func createTestUser(t *testing.T, store *memory.Store, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Role: domain.RoleUser, IsActive: true, University: "mit.edu"}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func completeProfileInput(name string, gender domain.Gender) CreateProfileInput {
	birth := time.Now().AddDate(-21, 0, 0)
	return CreateProfileInput{
		DisplayName: name,
		BirthDate:   &birth,
		Gender:      gender,
		Photos:      []string{"https://cdn.example.com/" + name + ".jpg"},
	}
}
