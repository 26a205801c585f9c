package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type MessageRole string

const (
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleUser      MessageRole = "user"
)

// ChatFile references a file uploaded into a chat.
type ChatFile struct {
	Name   string `json:"name"`
	FileID string `json:"fileId"`
}

type ChatFiles []ChatFile

func (f ChatFiles) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (f *ChatFiles) Scan(value any) error {
	return scanJSON(value, f)
}

type Chat struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:512" json:"title"`
	FocusMode string    `gorm:"size:100" json:"focus_mode"`
	Files     ChatFiles `gorm:"type:text" json:"files"`
	UserID    string    `gorm:"index;size:36" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Content   string      `gorm:"type:text" json:"content"`
	ChatID    string      `gorm:"index;size:36" json:"chat_id"`
	Chat      Chat        `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"-"`
	MessageID string      `gorm:"size:36" json:"message_id"`
	Role      MessageRole `gorm:"column:type;size:10" json:"role"`
	Metadata  JSONMap     `gorm:"type:text" json:"metadata,omitempty"`
	UserID    string      `gorm:"index;size:36" json:"user_id"`
	User      User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
