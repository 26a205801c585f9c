// Package sessions persists issued refresh tokens. It is the source of truth
// for revocation: a refresh token is only honored while a matching live row
// exists.
package sessions

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/searchmate/searchmate/internal/entities"
)

// ErrNotFound is returned when no live session matches a lookup.
var ErrNotFound = errors.New("session not found")

// Repository handles all session database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new sessions repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new session for a refresh token.
func (r *Repository) Create(userID, refreshToken string, expiresAt time.Time) (*entities.Session, error) {
	session := &entities.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}

	if err := r.db.Create(session).Error; err != nil {
		return nil, err
	}

	return session, nil
}

// FindByTokenAndUser looks up a live session by exact token+user match.
// Expired rows are deleted on lookup rather than ignored, so the table does
// not accumulate dead sessions that were never explicitly revoked.
func (r *Repository) FindByTokenAndUser(refreshToken, userID string) (*entities.Session, error) {
	var session entities.Session
	err := r.db.Where("refresh_token = ? AND user_id = ?", refreshToken, userID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if err := r.DeleteByID(session.ID); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	return &session, nil
}

// DeleteByID removes a session row. Used for rotation: the old session is
// destroyed before a new token pair is issued.
func (r *Repository) DeleteByID(id string) error {
	return r.db.Where("id = ?", id).Delete(&entities.Session{}).Error
}

// DeleteByToken removes the session holding a refresh token. Deleting a
// token that no longer exists is not an error (logout is idempotent).
func (r *Repository) DeleteByToken(refreshToken string) error {
	return r.db.Where("refresh_token = ?", refreshToken).Delete(&entities.Session{}).Error
}

// DeleteExpired removes all sessions past their expiry. Only the scheduled
// purge job calls this; validation already cleans up lazily.
func (r *Repository) DeleteExpired() (int64, error) {
	result := r.db.Where("expires_at < ?", time.Now()).Delete(&entities.Session{})
	return result.RowsAffected, result.Error
}

// CountForUser returns the number of live sessions a user holds.
func (r *Repository) CountForUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Session{}).
		Where("user_id = ? AND expires_at >= ?", userID, time.Now()).
		Count(&count).Error
	return count, err
}
