package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/searchmate/searchmate/internal/auth"
	"github.com/searchmate/searchmate/internal/config"
	"github.com/searchmate/searchmate/internal/database/userconfigs"
	"github.com/searchmate/searchmate/internal/entities"
	"github.com/searchmate/searchmate/internal/userconfig"
)

// FlatConfig is the flattened settings view the web client reads and writes.
// Every field is one resolved provider setting.
type FlatConfig struct {
	OpenAIAPIKey          string `json:"openaiApiKey"`
	GroqAPIKey            string `json:"groqApiKey"`
	AnthropicAPIKey       string `json:"anthropicApiKey"`
	GeminiAPIKey          string `json:"geminiApiKey"`
	OllamaAPIURL          string `json:"ollamaApiUrl"`
	OllamaAPIKey          string `json:"ollamaApiKey"`
	DeepseekAPIKey        string `json:"deepseekApiKey"`
	AIMLAPIKey            string `json:"aimlApiKey"`
	LMStudioAPIURL        string `json:"lmStudioApiUrl"`
	LemonadeAPIURL        string `json:"lemonadeApiUrl"`
	LemonadeAPIKey        string `json:"lemonadeApiKey"`
	CustomOpenAIAPIURL    string `json:"customOpenaiApiUrl"`
	CustomOpenAIAPIKey    string `json:"customOpenaiApiKey"`
	CustomOpenAIModelName string `json:"customOpenaiModelName"`
}

// flatConfigUpdate is the partial-update form: nil fields are left untouched.
type flatConfigUpdate struct {
	OpenAIAPIKey          *string `json:"openaiApiKey"`
	GroqAPIKey            *string `json:"groqApiKey"`
	AnthropicAPIKey       *string `json:"anthropicApiKey"`
	GeminiAPIKey          *string `json:"geminiApiKey"`
	OllamaAPIURL          *string `json:"ollamaApiUrl"`
	OllamaAPIKey          *string `json:"ollamaApiKey"`
	DeepseekAPIKey        *string `json:"deepseekApiKey"`
	AIMLAPIKey            *string `json:"aimlApiKey"`
	LMStudioAPIURL        *string `json:"lmStudioApiUrl"`
	LemonadeAPIURL        *string `json:"lemonadeApiUrl"`
	LemonadeAPIKey        *string `json:"lemonadeApiKey"`
	CustomOpenAIAPIURL    *string `json:"customOpenaiApiUrl"`
	CustomOpenAIAPIKey    *string `json:"customOpenaiApiKey"`
	CustomOpenAIModelName *string `json:"customOpenaiModelName"`
}

// userConfigUpdate is the raw per-provider update form.
type userConfigUpdate struct {
	Providers entities.ProviderMap `json:"providers"`
	Models    entities.JSONMap     `json:"models"`
}

// ConfigController serves the settings endpoints.
type ConfigController struct {
	resolver *userconfig.Resolver
}

// NewConfigController creates a new config controller.
func NewConfigController(resolver *userconfig.Resolver) *ConfigController {
	return &ConfigController{resolver: resolver}
}

// GetConfig returns the requester's effective settings, flattened.
func (cc *ConfigController) GetConfig(c *gin.Context) {
	userID := auth.CurrentUserID(c)

	resolved, err := cc.resolver.AllProviders(userID)
	if err != nil {
		respondInternalError(c, err, "resolve config")
		return
	}

	c.JSON(http.StatusOK, flatten(resolved))
}

// UpdateConfig applies a flat partial update to the requester's overrides.
// Custom OpenAI fields are mirrored into the legacy columns so older clients
// keep reading the same values.
func (cc *ConfigController) UpdateConfig(c *gin.Context) {
	userID := auth.CurrentUserID(c)

	var req flatConfigUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	stored, err := cc.resolver.Stored(userID)
	if err != nil {
		respondInternalError(c, err, "load config")
		return
	}

	providers := entities.ProviderMap{}
	for key, settings := range stored.Providers {
		providers[key] = settings
	}
	applyFlatUpdate(providers, &req)

	params := userconfigs.UpdateParams{
		Providers:           providers,
		CustomOpenAIBaseURL: req.CustomOpenAIAPIURL,
		CustomOpenAIKey:     req.CustomOpenAIAPIKey,
	}
	if _, err := cc.resolver.Update(userID, params); err != nil {
		respondInternalError(c, err, "update config")
		return
	}

	respondSuccess(c, "config updated")
}

// GetUserConfig returns the requester's raw stored overrides, without the
// global tier merged in.
func (cc *ConfigController) GetUserConfig(c *gin.Context) {
	userID := auth.CurrentUserID(c)

	stored, err := cc.resolver.Stored(userID)
	if err != nil {
		respondInternalError(c, err, "load user config")
		return
	}

	c.JSON(http.StatusOK, stored)
}

// UpdateUserConfig applies a raw partial update to the requester's overrides.
// Omitted sections keep their stored values.
func (cc *ConfigController) UpdateUserConfig(c *gin.Context) {
	userID := auth.CurrentUserID(c)

	var req userConfigUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	updated, err := cc.resolver.Update(userID, userconfigs.UpdateParams{
		Providers: req.Providers,
		Models:    req.Models,
	})
	if err != nil {
		respondInternalError(c, err, "update user config")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func flatten(resolved map[string]entities.ProviderSettings) FlatConfig {
	return FlatConfig{
		OpenAIAPIKey:          resolved[config.ProviderOpenAI].APIKey,
		GroqAPIKey:            resolved[config.ProviderGroq].APIKey,
		AnthropicAPIKey:       resolved[config.ProviderAnthropic].APIKey,
		GeminiAPIKey:          resolved[config.ProviderGemini].APIKey,
		OllamaAPIURL:          resolved[config.ProviderOllama].APIURL,
		OllamaAPIKey:          resolved[config.ProviderOllama].APIKey,
		DeepseekAPIKey:        resolved[config.ProviderDeepseek].APIKey,
		AIMLAPIKey:            resolved[config.ProviderAIMLAPI].APIKey,
		LMStudioAPIURL:        resolved[config.ProviderLMStudio].APIURL,
		LemonadeAPIURL:        resolved[config.ProviderLemonade].APIURL,
		LemonadeAPIKey:        resolved[config.ProviderLemonade].APIKey,
		CustomOpenAIAPIURL:    resolved[config.ProviderCustomOpenAI].APIURL,
		CustomOpenAIAPIKey:    resolved[config.ProviderCustomOpenAI].APIKey,
		CustomOpenAIModelName: resolved[config.ProviderCustomOpenAI].ModelName,
	}
}

func applyFlatUpdate(providers entities.ProviderMap, req *flatConfigUpdate) {
	setKey := func(provider string, apiKey, apiURL, modelName *string) {
		if apiKey == nil && apiURL == nil && modelName == nil {
			return
		}
		settings := providers[provider]
		if apiKey != nil {
			settings.APIKey = *apiKey
		}
		if apiURL != nil {
			settings.APIURL = *apiURL
		}
		if modelName != nil {
			settings.ModelName = *modelName
		}
		providers[provider] = settings
	}

	setKey(config.ProviderOpenAI, req.OpenAIAPIKey, nil, nil)
	setKey(config.ProviderGroq, req.GroqAPIKey, nil, nil)
	setKey(config.ProviderAnthropic, req.AnthropicAPIKey, nil, nil)
	setKey(config.ProviderGemini, req.GeminiAPIKey, nil, nil)
	setKey(config.ProviderOllama, req.OllamaAPIKey, req.OllamaAPIURL, nil)
	setKey(config.ProviderDeepseek, req.DeepseekAPIKey, nil, nil)
	setKey(config.ProviderAIMLAPI, req.AIMLAPIKey, nil, nil)
	setKey(config.ProviderLMStudio, nil, req.LMStudioAPIURL, nil)
	setKey(config.ProviderLemonade, req.LemonadeAPIKey, req.LemonadeAPIURL, nil)
	setKey(config.ProviderCustomOpenAI, req.CustomOpenAIAPIKey, req.CustomOpenAIAPIURL, req.CustomOpenAIModelName)
}
