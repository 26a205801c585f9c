// Package userconfigs provides database operations for per-user provider
// configuration overrides.
package userconfigs

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/searchmate/searchmate/internal/crypto"
	"github.com/searchmate/searchmate/internal/entities"
)

// Repository handles all user-config database operations.
type Repository struct {
	db  *gorm.DB
	enc *crypto.Encryptor
}

// NewRepository creates a new user-configs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UseEncryptor enables at-rest encryption of stored API keys. Rows written
// before the key was configured stay readable: opening a plaintext value
// fails authentication and the stored value is returned as-is.
func (r *Repository) UseEncryptor(enc *crypto.Encryptor) {
	r.enc = enc
}

// UpdateParams is a partial update: nil fields keep whatever is stored.
type UpdateParams struct {
	Providers           entities.ProviderMap
	Models              entities.JSONMap
	CustomOpenAIBaseURL *string
	CustomOpenAIKey     *string
}

// GetByUserID retrieves the config row for a user. Callers treat
// gorm.ErrRecordNotFound as an all-empty config, not a failure.
func (r *Repository) GetByUserID(userID string) (*entities.UserConfig, error) {
	var config entities.UserConfig
	err := r.db.Where("user_id = ?", userID).First(&config).Error
	if err != nil {
		return nil, err
	}
	r.openSecrets(&config)
	return &config, nil
}

// Upsert updates the user's config row in place, or inserts one if none
// exists. Omitted fields preserve previously stored values.
func (r *Repository) Upsert(userID string, params UpdateParams) (*entities.UserConfig, error) {
	var config entities.UserConfig
	err := r.db.Where("user_id = ?", userID).First(&config).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		config = entities.UserConfig{
			ID:        uuid.NewString(),
			UserID:    userID,
			Providers: entities.ProviderMap{},
			Models:    entities.JSONMap{},
		}
	} else if err != nil {
		return nil, err
	}
	r.openSecrets(&config)

	if params.Providers != nil {
		config.Providers = params.Providers
	}
	if params.Models != nil {
		config.Models = params.Models
	}
	if params.CustomOpenAIBaseURL != nil {
		config.CustomOpenAIBaseURL = *params.CustomOpenAIBaseURL
	}
	if params.CustomOpenAIKey != nil {
		config.CustomOpenAIKey = *params.CustomOpenAIKey
	}

	if err := r.sealSecrets(&config); err != nil {
		return nil, err
	}
	if err := r.db.Save(&config).Error; err != nil {
		return nil, err
	}
	r.openSecrets(&config)

	return &config, nil
}

// sealSecrets encrypts the API key fields in place. URLs and model names are
// not secret and stay readable in the database.
func (r *Repository) sealSecrets(config *entities.UserConfig) error {
	if r.enc == nil {
		return nil
	}
	for key, settings := range config.Providers {
		sealed, err := r.enc.Seal(settings.APIKey)
		if err != nil {
			return err
		}
		settings.APIKey = sealed
		config.Providers[key] = settings
	}
	sealed, err := r.enc.Seal(config.CustomOpenAIKey)
	if err != nil {
		return err
	}
	config.CustomOpenAIKey = sealed
	return nil
}

// openSecrets decrypts the API key fields in place. Values that fail to open
// are kept as stored, covering rows written before encryption was enabled.
func (r *Repository) openSecrets(config *entities.UserConfig) {
	if r.enc == nil {
		return
	}
	for key, settings := range config.Providers {
		if opened, err := r.enc.Open(settings.APIKey); err == nil {
			settings.APIKey = opened
			config.Providers[key] = settings
		}
	}
	if opened, err := r.enc.Open(config.CustomOpenAIKey); err == nil {
		config.CustomOpenAIKey = opened
	}
}

// DeleteByUserID removes a user's config row. Missing rows are not an error.
func (r *Repository) DeleteByUserID(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&entities.UserConfig{}).Error
}
