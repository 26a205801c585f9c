package http

import (
	"github.com/gin-gonic/gin"

	"github.com/searchmate/searchmate/internal/auth"
	"github.com/searchmate/searchmate/internal/config"
	"github.com/searchmate/searchmate/internal/database"
	"github.com/searchmate/searchmate/internal/database/chats"
	"github.com/searchmate/searchmate/internal/database/users"
	"github.com/searchmate/searchmate/internal/userconfig"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	Database *database.Database

	UserRepo *users.Repository
	ChatRepo *chats.Repository
	Resolver *userconfig.Resolver

	AuthService    *auth.Service
	AuthController *auth.AuthController
	AuthMiddleware *auth.Middleware
	TokenCodec     *auth.TokenCodec
	AuthConfig     config.Auth

	Version string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.AuthConfig.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before identity resolution: it replaces the request, and
	// it already skips requests carrying a valid Bearer token.
	if cfg.AuthConfig.CSRFSecret != "" {
		router.Use(auth.CSRFMiddleware(
			[]byte(cfg.AuthConfig.CSRFSecret),
			cfg.AuthConfig.SecureCookies,
			cfg.TokenCodec,
		))
	}

	router.Use(cfg.AuthMiddleware.Authenticate())

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := router.Group("/api")

	// Browser clients fetch the CSRF token here before their first mutating
	// cookie-authenticated request.
	if cfg.AuthConfig.CSRFSecret != "" {
		api.GET("/csrf", func(c *gin.Context) {
			c.JSON(200, gin.H{"csrfToken": auth.GetCSRFToken(c)})
		})
	}

	cfg.AuthController.RegisterRoutes(api, cfg.AuthMiddleware)

	configController := NewConfigController(cfg.Resolver)
	api.GET("/config", cfg.AuthMiddleware.RequireAuth(), configController.GetConfig)
	api.POST("/config", cfg.AuthMiddleware.RequireAuth(), configController.UpdateConfig)
	api.GET("/user/config", cfg.AuthMiddleware.RequireAuth(), configController.GetUserConfig)
	api.POST("/user/config", cfg.AuthMiddleware.RequireAuth(), configController.UpdateUserConfig)

	chatsController := NewChatsController(cfg.ChatRepo)
	api.GET("/chats", cfg.AuthMiddleware.RequireAuth(), chatsController.ListChats)
	api.POST("/chats", cfg.AuthMiddleware.RequireAuth(), chatsController.CreateChat)
	api.GET("/chats/:id", cfg.AuthMiddleware.RequireAuth(), chatsController.GetChat)
	api.DELETE("/chats/:id", cfg.AuthMiddleware.RequireAuth(), chatsController.DeleteChat)

	usersController := NewUsersController(cfg.UserRepo)
	admin := api.Group("/admin", cfg.AuthMiddleware.RequireAdmin())
	admin.GET("/users", usersController.ListUsers)
	admin.DELETE("/users/:id", usersController.DeleteUser)

	return router
}
