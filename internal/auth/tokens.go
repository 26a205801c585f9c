package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/searchmate/searchmate/internal/config"
	"github.com/searchmate/searchmate/internal/entities"
)

var (
	ErrSecretRequired = errors.New("access and refresh secrets are required")
	ErrSecretsEqual   = errors.New("access and refresh secrets must differ")
)

// Claims is the identity payload embedded in both token classes. It is a
// pointer back to the user record, not a copy of it: role and active status
// are re-checked against storage on every authentication, because a token
// may predate a revocation.
type Claims struct {
	UserID string            `json:"userId"`
	Email  string            `json:"email"`
	Role   entities.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies the two bearer token classes. Access and
// refresh tokens use distinct secrets, so a leaked access token cannot be
// replayed as a refresh token and the two classes can rotate independently.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenCodec creates a codec from the auth configuration. Both secrets
// are required and must differ.
func NewTokenCodec(cfg config.Auth) (*TokenCodec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrSecretRequired
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, ErrSecretsEqual
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &TokenCodec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// AccessTTL returns the access token lifetime.
func (tc *TokenCodec) AccessTTL() time.Duration {
	return tc.accessTTL
}

// RefreshTTL returns the refresh token lifetime.
func (tc *TokenCodec) RefreshTTL() time.Duration {
	return tc.refreshTTL
}

// SignAccess creates a short-lived access token from the user's current
// identity.
func (tc *TokenCodec) SignAccess(user *entities.User) (string, error) {
	return tc.sign(user, tc.accessSecret, tc.accessTTL)
}

// SignRefresh creates a long-lived refresh token from the user's current
// identity.
func (tc *TokenCodec) SignRefresh(user *entities.User) (string, error) {
	return tc.sign(user, tc.refreshSecret, tc.refreshTTL)
}

// VerifyAccess validates an access token and returns its claims. Any
// signature, expiry or shape failure yields ErrInvalidToken.
func (tc *TokenCodec) VerifyAccess(token string) (*Claims, error) {
	return tc.verify(token, tc.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (tc *TokenCodec) VerifyRefresh(token string) (*Claims, error) {
	return tc.verify(token, tc.refreshSecret)
}

func (tc *TokenCodec) sign(user *entities.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (tc *TokenCodec) verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	// Reject tokens missing required claims rather than assuming shape.
	if claims.UserID == "" || claims.Email == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
