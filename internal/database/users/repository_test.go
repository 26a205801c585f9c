package users

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/searchmate/searchmate/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	return NewRepository(db)
}

func TestRepository_CreateUser(t *testing.T) {
	repo := setupTestDB(t)

	user, err := repo.CreateUser("Test@Example.com", "hash", "Test", entities.UserRoleUser)

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "test@example.com", user.Email, "email is stored lowercased")
	assert.Equal(t, entities.UserRoleUser, user.Role)
	assert.True(t, user.IsActive)
}

func TestRepository_CreateUser_DuplicateEmail(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.CreateUser("test@example.com", "hash", "Test", entities.UserRoleUser)
	require.NoError(t, err)

	_, err = repo.CreateUser("TEST@example.com", "hash", "Other", entities.UserRoleUser)
	assert.Error(t, err, "case-insensitive uniqueness")
}

func TestRepository_GetUserByEmail(t *testing.T) {
	repo := setupTestDB(t)

	created, err := repo.CreateUser("test@example.com", "hash", "Test", entities.UserRoleUser)
	require.NoError(t, err)

	user, err := repo.GetUserByEmail("TEST@EXAMPLE.COM")

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestRepository_GetUserByEmail_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetUserByEmail("ghost@example.com")

	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepository_CountUsers(t *testing.T) {
	repo := setupTestDB(t)

	count, err := repo.CountUsers()
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.CreateUser("a@example.com", "hash", "A", entities.UserRoleAdmin)
	require.NoError(t, err)
	_, err = repo.CreateUser("b@example.com", "hash", "B", entities.UserRoleUser)
	require.NoError(t, err)

	count, err = repo.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepository_ListUsers(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.CreateUser("a@example.com", "hash", "A", entities.UserRoleAdmin)
	require.NoError(t, err)
	_, err = repo.CreateUser("b@example.com", "hash", "B", entities.UserRoleUser)
	require.NoError(t, err)

	users, err := repo.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestRepository_SetActive(t *testing.T) {
	repo := setupTestDB(t)

	created, err := repo.CreateUser("a@example.com", "hash", "A", entities.UserRoleUser)
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(created.ID, false))

	user, err := repo.GetUserByID(created.ID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
}

func TestRepository_DeleteUser(t *testing.T) {
	repo := setupTestDB(t)

	created, err := repo.CreateUser("a@example.com", "hash", "A", entities.UserRoleUser)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUser(created.ID))

	_, err = repo.GetUserByID(created.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
