// Package userconfig resolves effective provider settings for a user.
//
// Each setting resolves independently through three tiers: the user's own
// provider overrides, then (for the custom OpenAI provider only) the legacy
// flat columns, then the global environment configuration. A user who sets
// only an API key still inherits the globally configured URL for the same
// provider.
package userconfig

import (
	"errors"

	"gorm.io/gorm"

	"github.com/searchmate/searchmate/internal/config"
	"github.com/searchmate/searchmate/internal/database/userconfigs"
	"github.com/searchmate/searchmate/internal/entities"
)

// Resolver merges per-user provider overrides with the global configuration.
type Resolver struct {
	repo   *userconfigs.Repository
	global config.Providers
}

// NewResolver creates a new config resolver.
func NewResolver(repo *userconfigs.Repository, global config.Providers) *Resolver {
	return &Resolver{repo: repo, global: global}
}

// Provider returns the effective settings for one provider, resolved field by
// field. A user with no stored config resolves entirely from the global tier.
func (r *Resolver) Provider(userID, key string) (entities.ProviderSettings, error) {
	stored, err := r.repo.GetByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ProviderSettings{}, err
	}
	return r.resolve(stored, key), nil
}

// AllProviders returns the effective settings for every known provider key in
// a single lookup.
func (r *Resolver) AllProviders(userID string) (map[string]entities.ProviderSettings, error) {
	stored, err := r.repo.GetByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	resolved := make(map[string]entities.ProviderSettings, len(config.ProviderKeys))
	for _, key := range config.ProviderKeys {
		resolved[key] = r.resolve(stored, key)
	}
	return resolved, nil
}

// Stored returns the user's raw config row, or an empty one if nothing is
// stored yet.
func (r *Resolver) Stored(userID string) (*entities.UserConfig, error) {
	stored, err := r.repo.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entities.UserConfig{
			UserID:    userID,
			Providers: entities.ProviderMap{},
			Models:    entities.JSONMap{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Update applies a partial update to the user's stored overrides.
func (r *Resolver) Update(userID string, params userconfigs.UpdateParams) (*entities.UserConfig, error) {
	return r.repo.Upsert(userID, params)
}

// resolve walks the tiers for one provider key. stored may be nil.
func (r *Resolver) resolve(stored *entities.UserConfig, key string) entities.ProviderSettings {
	var user entities.ProviderSettings
	if stored != nil && stored.Providers != nil {
		user = stored.Providers[key]
	}

	// The legacy flat columns predate the providers map and only ever held
	// custom OpenAI credentials. The nested entry wins when both are set.
	var legacy entities.ProviderSettings
	if key == config.ProviderCustomOpenAI && stored != nil {
		legacy.APIURL = stored.CustomOpenAIBaseURL
		legacy.APIKey = stored.CustomOpenAIKey
	}

	global := r.global.Provider(key)

	return entities.ProviderSettings{
		APIKey:    firstNonEmpty(user.APIKey, legacy.APIKey, global.APIKey),
		APIURL:    firstNonEmpty(user.APIURL, legacy.APIURL, global.APIURL),
		ModelName: firstNonEmpty(user.ModelName, legacy.ModelName, global.ModelName),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
