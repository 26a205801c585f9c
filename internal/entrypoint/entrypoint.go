package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/searchmate/searchmate/internal/auth"
	"github.com/searchmate/searchmate/internal/config"
	"github.com/searchmate/searchmate/internal/crypto"
	"github.com/searchmate/searchmate/internal/database"
	"github.com/searchmate/searchmate/internal/database/chats"
	"github.com/searchmate/searchmate/internal/database/sessions"
	"github.com/searchmate/searchmate/internal/database/userconfigs"
	"github.com/searchmate/searchmate/internal/database/users"
	http_controllers "github.com/searchmate/searchmate/internal/http"
	"github.com/searchmate/searchmate/internal/userconfig"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then drains it within the
// configured shutdown timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Info().Str("host", cfg.HTTP.Host).Int32("port", cfg.HTTP.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Dur("timeout", timeout).Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server exiting")
}

// Run wires the application together and serves it.
func Run(cfg *config.Config, version string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Info().Str("version", version).Msg("starting searchmate")

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}()

	userRepo := users.NewRepository(db.DB)
	sessionRepo := sessions.NewRepository(db.DB)
	userConfigRepo := userconfigs.NewRepository(db.DB)
	chatRepo := chats.NewRepository(db.DB)

	if cfg.Auth.ConfigEncryptionKey != "" {
		enc, err := crypto.NewEncryptorFromBase64(cfg.Auth.ConfigEncryptionKey)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid CONFIG_ENCRYPTION_KEY")
		}
		userConfigRepo.UseEncryptor(enc)
		log.Info().Msg("provider API keys are encrypted at rest")
	}

	codec, err := auth.NewTokenCodec(cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token codec: set JWT_SECRET and JWT_REFRESH_SECRET")
	}

	authService := auth.NewService(userRepo, sessionRepo, codec, cfg.Auth)
	authMiddleware := auth.NewMiddleware(authService)
	authController := auth.NewAuthController(authService, codec, cfg.Auth)

	resolver := userconfig.NewResolver(userConfigRepo, cfg.Providers)

	if count, err := userRepo.CountUsers(); err == nil && count == 0 {
		log.Info().Msg("no users found; the first registered account becomes the admin")
	}

	// Expired sessions are deleted lazily on read; the cron job just keeps the
	// table from growing unbounded.
	var purgeCron *cron.Cron
	if cfg.Auth.SessionPurgeSchedule != "" {
		purgeCron = cron.New()
		_, err := purgeCron.AddFunc(cfg.Auth.SessionPurgeSchedule, func() {
			deleted, err := sessionRepo.DeleteExpired()
			if err != nil {
				log.Error().Err(err).Msg("session purge failed")
				return
			}
			if deleted > 0 {
				log.Info().Int64("deleted", deleted).Msg("purged expired sessions")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Auth.SessionPurgeSchedule).Msg("invalid session purge schedule")
		}
		purgeCron.Start()
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		UserRepo:       userRepo,
		ChatRepo:       chatRepo,
		Resolver:       resolver,
		AuthService:    authService,
		AuthController: authController,
		AuthMiddleware: authMiddleware,
		TokenCodec:     codec,
		AuthConfig:     cfg.Auth,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		authController.Stop()
		if purgeCron != nil {
			select {
			case <-purgeCron.Stop().Done():
			case <-ctx.Done():
			}
		}
	}

	Serve(router, cfg, onShutdown)
}
