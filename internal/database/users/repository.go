// Package users provides database operations for user accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByEmail("a@example.com")
package users

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/searchmate/searchmate/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser persists a new user. Emails are stored lowercased so uniqueness
// is case-insensitive.
func (r *Repository) CreateUser(email, passwordHash, name string, role entities.UserRole) (*entities.User, error) {
	user := &entities.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		IsActive:     true,
	}

	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (r *Repository) GetUserByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CountUsers returns the number of user accounts.
func (r *Repository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// ListUsers returns all users ordered by creation time.
func (r *Repository) ListUsers() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Order("created_at ASC").Find(&users).Error
	return users, err
}

// SetActive toggles whether an account may authenticate. Deactivation takes
// effect on the next request, regardless of outstanding tokens.
func (r *Repository) SetActive(id string, active bool) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).Update("is_active", active).Error
}

// DeleteUser removes a user. Sessions, configs, chats and messages owned by
// the user are removed by the cascade constraints.
func (r *Repository) DeleteUser(id string) error {
	return r.db.Where("id = ?", id).Delete(&entities.User{}).Error
}
