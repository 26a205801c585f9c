package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/searchmate/searchmate/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser   = "auth_user"
	ContextKeyUserID = "auth_user_id"
	ContextKeyRole   = "auth_role"
)

// Cookie names. The snake_case variant came first, the camelCase one matches
// the field names in API responses; both are accepted when reading.
const (
	CookieAccessToken      = "access_token"
	CookieAccessTokenCamel = "accessToken"
	CookieRefreshToken     = "refreshToken"
)

// Middleware authenticates HTTP requests from access tokens.
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Authenticate resolves the requester's identity when a valid access token is
// present and stores it in the context. Requests without credentials, or with
// bad ones, pass through anonymously; route-level guards decide whether that
// is acceptable.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractAccessToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.service.codec.VerifyAccess(token)
		if err != nil {
			c.Next()
			return
		}

		// Role and active status come from storage, not the token, so
		// revocation and demotion take effect before the token expires.
		user, err := m.service.UserByID(claims.UserID)
		if err != nil || !user.IsActive {
			c.Next()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyRole, user.Role)
		c.Next()
	}
}

// RequireAuth rejects unauthenticated requests with 401.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects unauthenticated requests with 401 and authenticated
// non-admins with 403.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		if user.Role != entities.UserRoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// ExtractAccessToken pulls the access token from the Authorization header,
// falling back to cookies for browser clients. A present but malformed
// header is a client error and is never rescued by a cookie.
func ExtractAccessToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}

	if token, err := c.Cookie(CookieAccessToken); err == nil && token != "" {
		return token
	}
	if token, err := c.Cookie(CookieAccessTokenCamel); err == nil && token != "" {
		return token
	}

	return ""
}

// CurrentUser retrieves the authenticated user from the context, or nil for
// anonymous requests.
func CurrentUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// CurrentUserID retrieves the authenticated user's id, or "" for anonymous
// requests.
func CurrentUserID(c *gin.Context) string {
	if v, exists := c.Get(ContextKeyUserID); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// IsAdmin reports whether the request is authenticated as an admin.
func IsAdmin(c *gin.Context) bool {
	user := CurrentUser(c)
	return user != nil && user.Role == entities.UserRoleAdmin
}
