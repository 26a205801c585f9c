package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/searchmate/searchmate/internal/config"
)

// AuthController handles the authentication HTTP endpoints.
type AuthController struct {
	service     *Service
	codec       *TokenCodec
	config      config.Auth
	rateLimiter CounterStore
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, codec *TokenCodec, cfg config.Auth) *AuthController {
	rateLimiter := NewMemoryCounterStore(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:     service,
		codec:       codec,
		config:      cfg,
		rateLimiter: rateLimiter,
	}
}

// RegisterRoutes registers the authentication routes.
func (ac *AuthController) RegisterRoutes(api *gin.RouterGroup, mw *Middleware) {
	group := api.Group("/auth")
	group.POST("/register", ac.Register)
	group.POST("/login", ac.Login)
	group.POST("/refresh", ac.Refresh)
	group.POST("/logout", ac.Logout)
	group.GET("/me", mw.RequireAuth(), ac.Me)
}

// Stop cleans up the rate limiter background goroutine.
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register creates a new account and signs the requester in.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pair, err := ac.service.Register(req.Email, req.Password, req.Name)
	if err != nil {
		ac.writeRegisterError(c, err)
		return
	}

	ac.setAuthCookies(c, pair)
	c.JSON(http.StatusCreated, pair)
}

// Login validates credentials and signs the requester in. Attempts are rate
// limited per IP and email.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	clientIP := c.ClientIP()
	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Email); !allowed {
		c.Header("Retry-After", retryAfter.String())
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":      "too many login attempts",
			"retryAfter": retryAfter.String(),
		})
		return
	}

	pair, err := ac.service.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			ac.rateLimiter.RecordFailure(clientIP, req.Email)
			c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidCredentials.Error()})
			return
		}
		log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, req.Email)
	ac.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

// Refresh rotates the refresh token and issues a fresh pair. The token is
// read from the refreshToken cookie, falling back to the JSON body for
// non-browser clients.
func (ac *AuthController) Refresh(c *gin.Context) {
	token, _ := c.Cookie(CookieRefreshToken)
	if token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
		return
	}

	pair, err := ac.service.Refresh(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			ac.clearAuthCookies(c)
			c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			return
		}
		log.Error().Err(err).Msg("token refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ac.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, pair)
}

// Logout revokes the current refresh token and clears cookies. Always
// succeeds, even when the token is already gone.
func (ac *AuthController) Logout(c *gin.Context) {
	token, _ := c.Cookie(CookieRefreshToken)
	if token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}

	if err := ac.service.Logout(token); err != nil {
		log.Error().Err(err).Msg("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ac.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile.
func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c)})
}

func (ac *AuthController) writeRegisterError(c *gin.Context, err error) {
	var policyErr *PasswordPolicyError
	switch {
	case errors.As(err, &policyErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "password does not meet policy",
			"details": policyErr.Violations,
		})
	case errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrEmailInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// setAuthCookies mirrors the token pair into cookies for browser clients.
// API clients can ignore the cookies and use the JSON body.
func (ac *AuthController) setAuthCookies(c *gin.Context, pair *TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieAccessTokenCamel, pair.AccessToken,
		int(ac.codec.AccessTTL().Seconds()), "/", "", ac.config.SecureCookies, true)
	c.SetCookie(CookieRefreshToken, pair.RefreshToken,
		int(ac.codec.RefreshTTL().Seconds()), "/", "", ac.config.SecureCookies, true)
}

func (ac *AuthController) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieAccessTokenCamel, "", -1, "/", "", ac.config.SecureCookies, true)
	c.SetCookie(CookieAccessToken, "", -1, "/", "", ac.config.SecureCookies, true)
	c.SetCookie(CookieRefreshToken, "", -1, "/", "", ac.config.SecureCookies, true)
}
