package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/searchmate/searchmate/internal/config"
	"github.com/searchmate/searchmate/internal/database/sessions"
	"github.com/searchmate/searchmate/internal/database/users"
	"github.com/searchmate/searchmate/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrNameRequired     = errors.New("name is required")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrEmailTaken       = errors.New("user with this email already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// callers cannot tell which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers every refresh failure mode: bad signature,
	// revoked or expired session, missing or deactivated user.
	ErrInvalidToken = errors.New("invalid token")
)

// PasswordPolicyError reports every policy rule a password violates.
type PasswordPolicyError struct {
	Violations []string
}

func (e *PasswordPolicyError) Error() string {
	return "password does not meet policy: " + strings.Join(e.Violations, "; ")
}

// TokenPair is an issued access/refresh token pair together with the public
// projection of the user they identify.
type TokenPair struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *entities.User `json:"user"`
}

// Service orchestrates the credential lifecycle: registration, login,
// refresh-token rotation and logout.
type Service struct {
	users    *users.Repository
	sessions *sessions.Repository
	codec    *TokenCodec
	config   config.Auth
}

// NewService creates a new authentication service.
func NewService(userRepo *users.Repository, sessionRepo *sessions.Repository, codec *TokenCodec, cfg config.Auth) *Service {
	return &Service{
		users:    userRepo,
		sessions: sessionRepo,
		codec:    codec,
		config:   cfg,
	}
}

// Register creates a new account and issues its first token pair. The first
// account ever created becomes the admin.
func (s *Service) Register(email, password, name string) (*TokenPair, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if name == "" {
		return nil, ErrNameRequired
	}

	// Validate email format and length (RFC 5321 limit is 254)
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	if violations := ValidatePasswordPolicy(password); len(violations) > 0 {
		return nil, &PasswordPolicyError{Violations: violations}
	}

	// Check if the email is already registered (emails are stored lowercased)
	_, err := s.users.GetUserByEmail(email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	count, err := s.users.CountUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	role := entities.UserRoleUser
	if count == 0 {
		role = entities.UserRoleAdmin
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(email, passwordHash, name, role)
	if err != nil {
		if isDuplicateEmail(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.Issue(user)
}

// isDuplicateEmail recognizes a unique-index violation on the email column.
// The pre-insert lookup cannot catch two concurrent registrations; the index
// is the arbiter, and losing the race is the same ErrEmailTaken.
func isDuplicateEmail(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed: users.email")
}

// Login validates credentials and issues a token pair. Unknown email and
// wrong password fail identically.
func (s *Service) Login(email, password string) (*TokenPair, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.Issue(user)
}

// Issue signs a token pair from the user's current identity and persists a
// session row for the refresh token.
func (s *Service) Issue(user *entities.User) (*TokenPair, error) {
	accessToken, err := s.codec.SignAccess(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.codec.SignRefresh(user)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.codec.RefreshTTL())
	if _, err := s.sessions.Create(user.ID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh exchanges a live refresh token for a fresh pair. The old session is
// destroyed first (rotation), so a refresh token is single-use. Claims are
// rebuilt from the stored user, which is how role changes propagate.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	session, err := s.sessions.FindByTokenAndUser(refreshToken, claims.UserID)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	user, err := s.users.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	if err := s.sessions.DeleteByID(session.ID); err != nil {
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	return s.Issue(user)
}

// Logout revokes the session holding a refresh token. Revoking a token that
// was never issued, or was already revoked, succeeds.
func (s *Service) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.DeleteByToken(refreshToken)
}

// UserByID retrieves the current user record for an authenticated request.
func (s *Service) UserByID(id string) (*entities.User, error) {
	return s.users.GetUserByID(id)
}
