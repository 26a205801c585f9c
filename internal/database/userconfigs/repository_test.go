package userconfigs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/searchmate/searchmate/internal/crypto"
	"github.com/searchmate/searchmate/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{}, &entities.UserConfig{})
	require.NoError(t, err)

	return NewRepository(db)
}

func strPtr(s string) *string { return &s }

func TestRepository_GetByUserID_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetByUserID("user-1")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepository_Upsert_CreatesRow(t *testing.T) {
	repo := setupTestDB(t)

	created, err := repo.Upsert("user-1", UpdateParams{
		Providers: entities.ProviderMap{
			"OPENAI": {APIKey: "sk-user"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "sk-user", created.Providers["OPENAI"].APIKey)

	stored, err := repo.GetByUserID("user-1")
	require.NoError(t, err)
	assert.Equal(t, "sk-user", stored.Providers["OPENAI"].APIKey)
}

func TestRepository_Upsert_PreservesOmittedFields(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Upsert("user-1", UpdateParams{
		Providers: entities.ProviderMap{
			"OPENAI": {APIKey: "sk-user"},
		},
		Models:              entities.JSONMap{"chatModel": "gpt-4o-mini"},
		CustomOpenAIBaseURL: strPtr("https://legacy.example.com"),
		CustomOpenAIKey:     strPtr("legacy-key"),
	})
	require.NoError(t, err)

	// Update only the models; everything else must survive.
	updated, err := repo.Upsert("user-1", UpdateParams{
		Models: entities.JSONMap{"chatModel": "gpt-4o"},
	})
	require.NoError(t, err)

	assert.Equal(t, "sk-user", updated.Providers["OPENAI"].APIKey)
	assert.Equal(t, "gpt-4o", updated.Models["chatModel"])
	assert.Equal(t, "https://legacy.example.com", updated.CustomOpenAIBaseURL)
	assert.Equal(t, "legacy-key", updated.CustomOpenAIKey)
}

func TestRepository_Upsert_ClearsWithEmptyString(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Upsert("user-1", UpdateParams{
		CustomOpenAIKey: strPtr("legacy-key"),
	})
	require.NoError(t, err)

	// nil pointer preserves, empty string clears.
	updated, err := repo.Upsert("user-1", UpdateParams{
		CustomOpenAIKey: strPtr(""),
	})
	require.NoError(t, err)
	assert.Empty(t, updated.CustomOpenAIKey)
}

func TestRepository_Upsert_SingleRowPerUser(t *testing.T) {
	repo := setupTestDB(t)

	first, err := repo.Upsert("user-1", UpdateParams{})
	require.NoError(t, err)

	second, err := repo.Upsert("user-1", UpdateParams{})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestRepository_Encryption_SealsAtRest(t *testing.T) {
	repo := setupTestDB(t)

	encoded, err := crypto.GenerateKey()
	require.NoError(t, err)
	enc, err := crypto.NewEncryptorFromBase64(encoded)
	require.NoError(t, err)
	repo.UseEncryptor(enc)

	_, err = repo.Upsert("user-1", UpdateParams{
		Providers: entities.ProviderMap{
			"OPENAI": {APIKey: "sk-user", APIURL: "https://api.openai.com"},
		},
		CustomOpenAIKey: strPtr("legacy-key"),
	})
	require.NoError(t, err)

	// The stored row holds ciphertext for key material, plaintext elsewhere.
	var raw entities.UserConfig
	require.NoError(t, repo.db.Where("user_id = ?", "user-1").First(&raw).Error)
	assert.NotEqual(t, "sk-user", raw.Providers["OPENAI"].APIKey)
	assert.NotEqual(t, "legacy-key", raw.CustomOpenAIKey)
	assert.Equal(t, "https://api.openai.com", raw.Providers["OPENAI"].APIURL)

	// Reads through the repository see the plaintext again.
	stored, err := repo.GetByUserID("user-1")
	require.NoError(t, err)
	assert.Equal(t, "sk-user", stored.Providers["OPENAI"].APIKey)
	assert.Equal(t, "legacy-key", stored.CustomOpenAIKey)
}

func TestRepository_Encryption_ReadsPlaintextRows(t *testing.T) {
	repo := setupTestDB(t)

	// Row written before the encryption key existed.
	_, err := repo.Upsert("user-1", UpdateParams{
		Providers: entities.ProviderMap{
			"OPENAI": {APIKey: "sk-user"},
		},
	})
	require.NoError(t, err)

	encoded, err := crypto.GenerateKey()
	require.NoError(t, err)
	enc, err := crypto.NewEncryptorFromBase64(encoded)
	require.NoError(t, err)
	repo.UseEncryptor(enc)

	stored, err := repo.GetByUserID("user-1")
	require.NoError(t, err)
	assert.Equal(t, "sk-user", stored.Providers["OPENAI"].APIKey)
}

func TestRepository_DeleteByUserID(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Upsert("user-1", UpdateParams{})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByUserID("user-1"))
	require.NoError(t, repo.DeleteByUserID("user-1"), "deleting a missing row is not an error")

	_, err = repo.GetByUserID("user-1")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
