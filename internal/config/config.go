package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/searchmate/searchmate/internal/entities"
)

// Provider keys understood by the resolver. Stored configs may contain other
// keys; they are preserved but resolved against no global default.
const (
	ProviderOpenAI       = "OPENAI"
	ProviderGroq         = "GROQ"
	ProviderAnthropic    = "ANTHROPIC"
	ProviderGemini       = "GEMINI"
	ProviderOllama       = "OLLAMA"
	ProviderDeepseek     = "DEEPSEEK"
	ProviderAIMLAPI      = "AIMLAPI"
	ProviderLMStudio     = "LM_STUDIO"
	ProviderLemonade     = "LEMONADE"
	ProviderCustomOpenAI = "CUSTOM_OPENAI"
)

// ProviderKeys lists every provider with a global configuration tier.
var ProviderKeys = []string{
	ProviderOpenAI,
	ProviderGroq,
	ProviderAnthropic,
	ProviderGemini,
	ProviderOllama,
	ProviderDeepseek,
	ProviderAIMLAPI,
	ProviderLMStudio,
	ProviderLemonade,
	ProviderCustomOpenAI,
}

type (
	Config struct {
		HTTP
		Database
		Global
		Auth
		Providers
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Auth struct {
		AccessSecret    string
		RefreshSecret   string
		AccessTokenTTL  time.Duration
		RefreshTokenTTL time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
		CSRFSecret      string

		// Rate limiting for login attempts
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 1m)
		LockoutDuration  time.Duration // How long to lock out (default: 15m)

		// Cron schedule for purging expired sessions; empty disables the job.
		// Lazy delete-on-read keeps auth correct either way.
		SessionPurgeSchedule string

		// Base64 AES-256 key for encrypting stored provider API keys.
		// Empty stores them in plaintext.
		ConfigEncryptionKey string
	}

	// Providers holds the global (lowest-priority) credential tier, keyed by
	// provider key.
	Providers map[string]entities.ProviderSettings
)

// Provider returns the global settings for a provider key, or an empty record
// if none are configured.
func (p Providers) Provider(key string) entities.ProviderSettings {
	return p[key]
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3001)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_refresh_secret", "")
	v.SetDefault("auth_access_token_ttl", "15m")
	v.SetDefault("auth_refresh_token_ttl", "168h") // 7 days
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_csrf_secret", "")
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "1m")
	v.SetDefault("auth_lockout_duration", "15m")
	v.SetDefault("auth_session_purge_schedule", "")
	v.SetDefault("config_encryption_key", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Auth: Auth{
			AccessSecret:         v.GetString("JWT_SECRET"),
			RefreshSecret:        v.GetString("JWT_REFRESH_SECRET"),
			AccessTokenTTL:       v.GetDuration("AUTH_ACCESS_TOKEN_TTL"),
			RefreshTokenTTL:      v.GetDuration("AUTH_REFRESH_TOKEN_TTL"),
			BcryptCost:           v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:        v.GetBool("AUTH_SECURE_COOKIES"),
			CSRFSecret:           v.GetString("AUTH_CSRF_SECRET"),
			MaxLoginAttempts:     v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:      v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:      v.GetDuration("AUTH_LOCKOUT_DURATION"),
			SessionPurgeSchedule: v.GetString("AUTH_SESSION_PURGE_SCHEDULE"),
			ConfigEncryptionKey:  v.GetString("CONFIG_ENCRYPTION_KEY"),
		},
		Providers: Providers{
			ProviderOpenAI: {
				APIKey: v.GetString("OPENAI_API_KEY"),
			},
			ProviderGroq: {
				APIKey: v.GetString("GROQ_API_KEY"),
			},
			ProviderAnthropic: {
				APIKey: v.GetString("ANTHROPIC_API_KEY"),
			},
			ProviderGemini: {
				APIKey: v.GetString("GEMINI_API_KEY"),
			},
			ProviderOllama: {
				APIURL: v.GetString("OLLAMA_API_URL"),
				APIKey: v.GetString("OLLAMA_API_KEY"),
			},
			ProviderDeepseek: {
				APIKey: v.GetString("DEEPSEEK_API_KEY"),
			},
			ProviderAIMLAPI: {
				APIKey: v.GetString("AIMLAPI_API_KEY"),
			},
			ProviderLMStudio: {
				APIURL: v.GetString("LM_STUDIO_API_URL"),
			},
			ProviderLemonade: {
				APIURL: v.GetString("LEMONADE_API_URL"),
				APIKey: v.GetString("LEMONADE_API_KEY"),
			},
			ProviderCustomOpenAI: {
				APIURL:    v.GetString("CUSTOM_OPENAI_API_URL"),
				APIKey:    v.GetString("CUSTOM_OPENAI_API_KEY"),
				ModelName: v.GetString("CUSTOM_OPENAI_MODEL_NAME"),
			},
		},
	}
}
