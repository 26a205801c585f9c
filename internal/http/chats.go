package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/searchmate/searchmate/internal/auth"
	"github.com/searchmate/searchmate/internal/database/chats"
	"github.com/searchmate/searchmate/internal/entities"
)

// ChatsController serves conversation history endpoints. Every operation is
// scoped to the authenticated user; nobody can read or delete another user's
// chats, admins included.
type ChatsController struct {
	repo *chats.Repository
}

// NewChatsController creates a new chats controller.
func NewChatsController(repo *chats.Repository) *ChatsController {
	return &ChatsController{repo: repo}
}

type createChatRequest struct {
	Title     string             `json:"title"`
	FocusMode string             `json:"focusMode"`
	Files     entities.ChatFiles `json:"files"`
}

// ListChats returns the requester's chats, newest first.
func (cc *ChatsController) ListChats(c *gin.Context) {
	userID := auth.CurrentUserID(c)

	list, err := cc.repo.ListChatsForUser(userID)
	if err != nil {
		respondInternalError(c, err, "list chats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": list})
}

// CreateChat starts a new conversation for the requester.
func (cc *ChatsController) CreateChat(c *gin.Context) {
	userID := auth.CurrentUserID(c)

	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Title == "" {
		respondBadRequest(c, "title is required")
		return
	}

	chat := &entities.Chat{
		ID:        uuid.NewString(),
		Title:     req.Title,
		FocusMode: req.FocusMode,
		Files:     req.Files,
		UserID:    userID,
	}
	if chat.Files == nil {
		chat.Files = entities.ChatFiles{}
	}

	if err := cc.repo.CreateChat(chat); err != nil {
		respondInternalError(c, err, "create chat")
		return
	}

	respondCreated(c, gin.H{"chat": chat})
}

// GetChat returns one chat with its messages.
func (cc *ChatsController) GetChat(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	chatID := c.Param("id")

	chat, err := cc.repo.GetChatForUser(chatID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "chat")
			return
		}
		respondInternalError(c, err, "get chat")
		return
	}

	messages, err := cc.repo.GetMessagesForChat(chatID)
	if err != nil {
		respondInternalError(c, err, "get chat messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chat, "messages": messages})
}

// DeleteChat removes a chat and its messages.
func (cc *ChatsController) DeleteChat(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	chatID := c.Param("id")

	if err := cc.repo.DeleteChatForUser(chatID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "chat")
			return
		}
		respondInternalError(c, err, "delete chat")
		return
	}

	respondSuccess(c, "chat deleted")
}
