package chats

import (
	"errors"
	"testing"

	"github.com/google/uuid"
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

	err = db.AutoMigrate(&entities.User{}, &entities.Chat{}, &entities.Message{})
	require.NoError(t, err)

	return NewRepository(db)
}

func newChat(userID, title string) *entities.Chat {
	return &entities.Chat{
		ID:        uuid.NewString(),
		Title:     title,
		FocusMode: "webSearch",
		Files:     entities.ChatFiles{},
		UserID:    userID,
	}
}

func TestRepository_CreateAndGetChat(t *testing.T) {
	repo := setupTestDB(t)

	chat := newChat("user-1", "Weather in Riga")
	require.NoError(t, repo.CreateChat(chat))

	found, err := repo.GetChatForUser(chat.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Weather in Riga", found.Title)
}

func TestRepository_GetChatForUser_ScopedToOwner(t *testing.T) {
	repo := setupTestDB(t)

	chat := newChat("user-1", "Private chat")
	require.NoError(t, repo.CreateChat(chat))

	_, err := repo.GetChatForUser(chat.ID, "user-2")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepository_ListChatsForUser(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.CreateChat(newChat("user-1", "First")))
	require.NoError(t, repo.CreateChat(newChat("user-1", "Second")))
	require.NoError(t, repo.CreateChat(newChat("user-2", "Other user")))

	chats, err := repo.ListChatsForUser("user-1")
	require.NoError(t, err)
	assert.Len(t, chats, 2)
}

func TestRepository_DeleteChatRemovesMessages(t *testing.T) {
	repo := setupTestDB(t)

	chat := newChat("user-1", "Doomed")
	require.NoError(t, repo.CreateChat(chat))
	require.NoError(t, repo.CreateMessage(&entities.Message{
		Content:   "hello",
		ChatID:    chat.ID,
		MessageID: uuid.NewString(),
		Role:      entities.MessageRoleUser,
		UserID:    "user-1",
	}))

	require.NoError(t, repo.DeleteChatForUser(chat.ID, "user-1"))

	messages, err := repo.GetMessagesForChat(chat.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestRepository_DeleteChatForUser_NonOwnerDeletesNothing(t *testing.T) {
	repo := setupTestDB(t)

	chat := newChat("user-1", "Private chat")
	require.NoError(t, repo.CreateChat(chat))
	require.NoError(t, repo.CreateMessage(&entities.Message{
		Content:   "hello",
		ChatID:    chat.ID,
		MessageID: uuid.NewString(),
		Role:      entities.MessageRoleUser,
		UserID:    "user-1",
	}))

	err := repo.DeleteChatForUser(chat.ID, "user-2")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	// The chat and its messages are untouched.
	_, err = repo.GetChatForUser(chat.ID, "user-1")
	require.NoError(t, err)
	messages, err := repo.GetMessagesForChat(chat.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestRepository_MessagesInInsertionOrder(t *testing.T) {
	repo := setupTestDB(t)

	chat := newChat("user-1", "Ordered")
	require.NoError(t, repo.CreateChat(chat))

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, repo.CreateMessage(&entities.Message{
			Content:   content,
			ChatID:    chat.ID,
			MessageID: uuid.NewString(),
			Role:      entities.MessageRoleUser,
			UserID:    "user-1",
		}))
	}

	messages, err := repo.GetMessagesForChat(chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "third", messages[2].Content)
}

func TestRepository_AssignOrphanedToUser(t *testing.T) {
	repo := setupTestDB(t)

	orphan := newChat("", "Pre-account chat")
	require.NoError(t, repo.CreateChat(orphan))
	require.NoError(t, repo.CreateMessage(&entities.Message{
		Content:   "old message",
		ChatID:    orphan.ID,
		MessageID: uuid.NewString(),
		Role:      entities.MessageRoleUser,
	}))
	require.NoError(t, repo.CreateChat(newChat("user-2", "Owned chat")))

	chatCount, err := repo.CountOrphanedChats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), chatCount)

	messageCount, err := repo.CountOrphanedMessages()
	require.NoError(t, err)
	assert.Equal(t, int64(1), messageCount)

	assignedChats, assignedMessages, err := repo.AssignOrphanedToUser("admin-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), assignedChats)
	assert.Equal(t, int64(1), assignedMessages)

	adopted, err := repo.GetChatForUser(orphan.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "Pre-account chat", adopted.Title)

	// Nothing left to adopt.
	chatCount, err = repo.CountOrphanedChats()
	require.NoError(t, err)
	assert.Zero(t, chatCount)
}
