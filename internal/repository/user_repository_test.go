package repository

import (
	"context"
	"testing"

	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateAndGetUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteUserRepository(db, zap.NewNop())
	ctx := context.Background()

	user := domain.NewUser("sam@lab.example", "Sam", "$2a$10$hash")
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByEmail(ctx, "sam@lab.example")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Sam", got.Name)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteUserRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.NewUser("sam@lab.example", "Sam", "hash1")))

	err := repo.Create(ctx, domain.NewUser("sam@lab.example", "Other Sam", "hash2"))

	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetUser_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteUserRepository(db, zap.NewNop())

	_, err := repo.GetByEmail(context.Background(), "nobody@lab.example")

	assert.ErrorIs(t, err, ErrUserNotFound)
}
