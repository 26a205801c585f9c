package userconfig

import (
	"github.com/searchmate/searchmate/internal/config"
)

// Named accessors for the settings the model loaders ask for. Each one is a
// single resolved field; errors surface so callers can tell a missing key
// from a failed lookup.

func (r *Resolver) OpenAIAPIKey(userID string) (string, error) {
	return r.field(userID, config.ProviderOpenAI, fieldAPIKey)
}

func (r *Resolver) GroqAPIKey(userID string) (string, error) {
	return r.field(userID, config.ProviderGroq, fieldAPIKey)
}

func (r *Resolver) AnthropicAPIKey(userID string) (string, error) {
	return r.field(userID, config.ProviderAnthropic, fieldAPIKey)
}

func (r *Resolver) GeminiAPIKey(userID string) (string, error) {
	return r.field(userID, config.ProviderGemini, fieldAPIKey)
}

func (r *Resolver) OllamaAPIURL(userID string) (string, error) {
	return r.field(userID, config.ProviderOllama, fieldAPIURL)
}

func (r *Resolver) OllamaAPIKey(userID string) (string, error) {
	return r.field(userID, config.ProviderOllama, fieldAPIKey)
}

func (r *Resolver) DeepseekAPIKey(userID string) (string, error) {
	return r.field(userID, config.ProviderDeepseek, fieldAPIKey)
}

func (r *Resolver) AIMLAPIKey(userID string) (string, error) {
	return r.field(userID, config.ProviderAIMLAPI, fieldAPIKey)
}

func (r *Resolver) LMStudioAPIURL(userID string) (string, error) {
	return r.field(userID, config.ProviderLMStudio, fieldAPIURL)
}

func (r *Resolver) LemonadeAPIURL(userID string) (string, error) {
	return r.field(userID, config.ProviderLemonade, fieldAPIURL)
}

func (r *Resolver) LemonadeAPIKey(userID string) (string, error) {
	return r.field(userID, config.ProviderLemonade, fieldAPIKey)
}

func (r *Resolver) CustomOpenAIAPIURL(userID string) (string, error) {
	return r.field(userID, config.ProviderCustomOpenAI, fieldAPIURL)
}

func (r *Resolver) CustomOpenAIAPIKey(userID string) (string, error) {
	return r.field(userID, config.ProviderCustomOpenAI, fieldAPIKey)
}

func (r *Resolver) CustomOpenAIModelName(userID string) (string, error) {
	return r.field(userID, config.ProviderCustomOpenAI, fieldModelName)
}

type providerField int

const (
	fieldAPIKey providerField = iota
	fieldAPIURL
	fieldModelName
)

func (r *Resolver) field(userID, key string, f providerField) (string, error) {
	settings, err := r.Provider(userID, key)
	if err != nil {
		return "", err
	}
	switch f {
	case fieldAPIURL:
		return settings.APIURL, nil
	case fieldModelName:
		return settings.ModelName, nil
	default:
		return settings.APIKey, nil
	}
}
