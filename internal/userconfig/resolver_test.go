package userconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/searchmate/searchmate/internal/config"
	"github.com/searchmate/searchmate/internal/database/userconfigs"
	"github.com/searchmate/searchmate/internal/entities"
)

func setupResolver(t *testing.T, global config.Providers) (*Resolver, *userconfigs.Repository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.UserConfig{}))

	repo := userconfigs.NewRepository(db)
	return NewResolver(repo, global), repo
}

func TestResolver_GlobalFallback(t *testing.T) {
	resolver, _ := setupResolver(t, config.Providers{
		config.ProviderOpenAI: {APIKey: "sk-global"},
	})

	// No stored config at all: the global tier answers.
	settings, err := resolver.Provider("user-1", config.ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-global", settings.APIKey)

	key, err := resolver.OpenAIAPIKey("user-1")
	require.NoError(t, err)
	assert.Equal(t, "sk-global", key)
}

func TestResolver_UserOverrideWins(t *testing.T) {
	resolver, repo := setupResolver(t, config.Providers{
		config.ProviderOpenAI: {APIKey: "sk-global"},
	})

	_, err := repo.Upsert("user-1", userconfigs.UpdateParams{
		Providers: entities.ProviderMap{
			config.ProviderOpenAI: {APIKey: "sk-user"},
		},
	})
	require.NoError(t, err)

	key, err := resolver.OpenAIAPIKey("user-1")
	require.NoError(t, err)
	assert.Equal(t, "sk-user", key)

	// Other users keep the global value.
	key, err = resolver.OpenAIAPIKey("user-2")
	require.NoError(t, err)
	assert.Equal(t, "sk-global", key)
}

func TestResolver_PerFieldIndependence(t *testing.T) {
	resolver, repo := setupResolver(t, config.Providers{
		config.ProviderOllama: {APIURL: "http://global:11434", APIKey: "global-key"},
	})

	// The user overrides only the URL; the key still resolves globally.
	_, err := repo.Upsert("user-1", userconfigs.UpdateParams{
		Providers: entities.ProviderMap{
			config.ProviderOllama: {APIURL: "http://local:11434"},
		},
	})
	require.NoError(t, err)

	settings, err := resolver.Provider("user-1", config.ProviderOllama)
	require.NoError(t, err)
	assert.Equal(t, "http://local:11434", settings.APIURL)
	assert.Equal(t, "global-key", settings.APIKey)
}

func TestResolver_LegacyCustomOpenAITier(t *testing.T) {
	resolver, repo := setupResolver(t, config.Providers{
		config.ProviderCustomOpenAI: {APIURL: "https://global.example.com", ModelName: "global-model"},
	})

	legacyURL := "https://legacy.example.com"
	legacyKey := "legacy-key"
	_, err := repo.Upsert("user-1", userconfigs.UpdateParams{
		CustomOpenAIBaseURL: &legacyURL,
		CustomOpenAIKey:     &legacyKey,
	})
	require.NoError(t, err)

	settings, err := resolver.Provider("user-1", config.ProviderCustomOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.com", settings.APIURL)
	assert.Equal(t, "legacy-key", settings.APIKey)
	// The legacy columns never held a model name, so it falls to the global.
	assert.Equal(t, "global-model", settings.ModelName)
}

func TestResolver_NestedBeatsLegacy(t *testing.T) {
	resolver, repo := setupResolver(t, config.Providers{})

	legacyURL := "https://legacy.example.com"
	_, err := repo.Upsert("user-1", userconfigs.UpdateParams{
		Providers: entities.ProviderMap{
			config.ProviderCustomOpenAI: {APIURL: "https://nested.example.com"},
		},
		CustomOpenAIBaseURL: &legacyURL,
	})
	require.NoError(t, err)

	url, err := resolver.CustomOpenAIAPIURL("user-1")
	require.NoError(t, err)
	assert.Equal(t, "https://nested.example.com", url)
}

func TestResolver_LegacyDoesNotLeakIntoOtherProviders(t *testing.T) {
	resolver, repo := setupResolver(t, config.Providers{})

	legacyKey := "legacy-key"
	_, err := repo.Upsert("user-1", userconfigs.UpdateParams{
		CustomOpenAIKey: &legacyKey,
	})
	require.NoError(t, err)

	key, err := resolver.OpenAIAPIKey("user-1")
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestResolver_UnconfiguredResolvesEmpty(t *testing.T) {
	resolver, _ := setupResolver(t, config.Providers{})

	settings, err := resolver.Provider("user-1", config.ProviderGroq)
	require.NoError(t, err)
	assert.Equal(t, entities.ProviderSettings{}, settings)
}

func TestResolver_AllProviders(t *testing.T) {
	resolver, repo := setupResolver(t, config.Providers{
		config.ProviderOpenAI: {APIKey: "sk-global"},
		config.ProviderGroq:   {APIKey: "gk-global"},
	})

	_, err := repo.Upsert("user-1", userconfigs.UpdateParams{
		Providers: entities.ProviderMap{
			config.ProviderGroq: {APIKey: "gk-user"},
		},
	})
	require.NoError(t, err)

	all, err := resolver.AllProviders("user-1")
	require.NoError(t, err)
	assert.Equal(t, "sk-global", all[config.ProviderOpenAI].APIKey)
	assert.Equal(t, "gk-user", all[config.ProviderGroq].APIKey)
	assert.Len(t, all, len(config.ProviderKeys))
}
