package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_Users(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()

	t.Run("create and fetch user", func(t *testing.T) {
		created, err := storage.CreateUser(ctx, " Jane Doe ", " Jane@Example.COM ", "hash-1")
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Jane Doe", created.Name)
		assert.Equal(t, "jane@example.com", created.Email)
		assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Minute)

		byEmail, err := storage.GetUserByEmail(ctx, "JANE@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		assert.Equal(t, "hash-1", byEmail.PasswordHash)

		byID, err := storage.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", byID.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := storage.CreateUser(ctx, "Other", "jane@example.com", "hash-2")
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := storage.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = storage.GetUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = storage.GetUserByID(ctx, "u1")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = storage.GetUserByID(ctx, "")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestStorage_ListUsers_NewestFirst(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	factory.CreateUser(t, "Old", "old@example.com", base)
	factory.CreateUser(t, "New", "new@example.com", base.Add(48*time.Hour))
	factory.CreateUser(t, "Mid", "mid@example.com", base.Add(24*time.Hour))

	users, err := storage.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)

	assert.Equal(t, "new@example.com", users[0].Email)
	assert.Equal(t, "mid@example.com", users[1].Email)
	assert.Equal(t, "old@example.com", users[2].Email)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash, "password must not be loaded")
	}
}
