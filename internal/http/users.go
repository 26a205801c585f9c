package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/searchmate/searchmate/internal/auth"
	"github.com/searchmate/searchmate/internal/database/users"
)

// UsersController serves the admin user-management endpoints.
type UsersController struct {
	repo *users.Repository
}

// NewUsersController creates a new users controller.
func NewUsersController(repo *users.Repository) *UsersController {
	return &UsersController{repo: repo}
}

// ListUsers returns all accounts. Password hashes never serialize.
func (uc *UsersController) ListUsers(c *gin.Context) {
	list, err := uc.repo.ListUsers()
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": list})
}

// DeleteUser removes an account and, through cascades, its sessions, config
// and chats. Admins cannot delete themselves.
func (uc *UsersController) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	if id == auth.CurrentUserID(c) {
		respondBadRequest(c, "cannot delete your own account")
		return
	}

	if _, err := uc.repo.GetUserByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "get user")
		return
	}

	if err := uc.repo.DeleteUser(id); err != nil {
		respondInternalError(c, err, "delete user")
		return
	}

	respondSuccess(c, "user deleted")
}
