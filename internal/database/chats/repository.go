// Package chats provides database operations for conversations and their
// messages.
package chats

import (
	"gorm.io/gorm"

	"github.com/searchmate/searchmate/internal/entities"
)

// Repository handles all chat and message database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new chats repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateChat persists a new chat.
func (r *Repository) CreateChat(chat *entities.Chat) error {
	return r.db.Create(chat).Error
}

// GetChatForUser retrieves a chat by id, scoped to its owner.
func (r *Repository) GetChatForUser(id, userID string) (*entities.Chat, error) {
	var chat entities.Chat
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListChatsForUser returns the user's chats, newest first.
func (r *Repository) ListChatsForUser(userID string) ([]entities.Chat, error) {
	var chats []entities.Chat
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&chats).Error
	return chats, err
}

// DeleteChatForUser removes a chat and its messages in one transaction. The
// ownership check runs inside the transaction: a non-owner deletes nothing
// and gets gorm.ErrRecordNotFound.
func (r *Repository) DeleteChatForUser(id, userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var chat entities.Chat
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&chat).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", id).Delete(&entities.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entities.Chat{}).Error
	})
}

// CreateMessage persists a message in a chat.
func (r *Repository) CreateMessage(message *entities.Message) error {
	return r.db.Create(message).Error
}

// GetMessagesForChat returns a chat's messages in insertion order.
func (r *Repository) GetMessagesForChat(chatID string) ([]entities.Message, error) {
	var messages []entities.Message
	err := r.db.Where("chat_id = ?", chatID).Order("id ASC").Find(&messages).Error
	return messages, err
}

// CountOrphanedChats returns how many chats predate the account system and
// have no owner yet.
func (r *Repository) CountOrphanedChats() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Chat{}).
		Where("user_id IS NULL OR user_id = ''").
		Count(&count).Error
	return count, err
}

// CountOrphanedMessages returns how many messages have no owner yet.
func (r *Repository) CountOrphanedMessages() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Message{}).
		Where("user_id IS NULL OR user_id = ''").
		Count(&count).Error
	return count, err
}

// AssignOrphanedToUser reassigns ownerless chats and messages to a user.
// Used by the legacy-data migration command.
func (r *Repository) AssignOrphanedToUser(userID string) (chatCount, messageCount int64, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Chat{}).
			Where("user_id IS NULL OR user_id = ''").
			Update("user_id", userID)
		if result.Error != nil {
			return result.Error
		}
		chatCount = result.RowsAffected

		result = tx.Model(&entities.Message{}).
			Where("user_id IS NULL OR user_id = ''").
			Update("user_id", userID)
		if result.Error != nil {
			return result.Error
		}
		messageCount = result.RowsAffected

		return nil
	})
	return chatCount, messageCount, err
}
