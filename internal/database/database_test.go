package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchmate/searchmate/internal/entities"
)

// Deleting a user must take its sessions, config, chats and messages with it.
// This opens a file database through NewDatabase, so the foreign-key pragma
// and the cascade constraints are active exactly as in production.
func TestDatabase_DeleteUserCascades(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "cascade.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	user := &entities.User{
		ID:       uuid.NewString(),
		Email:    "user@example.com",
		Name:     "User",
		Role:     entities.UserRoleUser,
		IsActive: true,
	}
	require.NoError(t, db.DB.Create(user).Error)

	require.NoError(t, db.DB.Create(&entities.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour),
	}).Error)
	require.NoError(t, db.DB.Create(&entities.UserConfig{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Providers: entities.ProviderMap{"OPENAI": {APIKey: "sk-user"}},
		Models:    entities.JSONMap{},
	}).Error)

	chat := &entities.Chat{
		ID:     uuid.NewString(),
		Title:  "Doomed chat",
		Files:  entities.ChatFiles{},
		UserID: user.ID,
	}
	require.NoError(t, db.DB.Create(chat).Error)
	require.NoError(t, db.DB.Create(&entities.Message{
		Content:   "hello",
		ChatID:    chat.ID,
		MessageID: uuid.NewString(),
		Role:      entities.MessageRoleUser,
		UserID:    user.ID,
	}).Error)

	require.NoError(t, db.DB.Delete(&entities.User{}, "id = ?", user.ID).Error)

	for table, model := range map[string]any{
		"sessions":     &entities.Session{},
		"user_configs": &entities.UserConfig{},
		"chats":        &entities.Chat{},
		"messages":     &entities.Message{},
	} {
		var count int64
		require.NoError(t, db.DB.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%s rows survived the user delete", table)
	}
}
