package entities

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ProviderSettings is the per-provider credential override record. Empty
// fields mean "inherit from the next configuration tier".
type ProviderSettings struct {
	APIKey    string `json:"API_KEY,omitempty"`
	APIURL    string `json:"API_URL,omitempty"`
	ModelName string `json:"MODEL_NAME,omitempty"`
}

// ProviderMap maps provider keys (e.g. "OPENAI") to their settings. Unknown
// keys are stored and round-tripped verbatim.
type ProviderMap map[string]ProviderSettings

func (m ProviderMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *ProviderMap) Scan(value any) error {
	return scanJSON(value, m)
}

// JSONMap is a free-form JSON object column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *JSONMap) Scan(value any) error {
	return scanJSON(value, m)
}

func scanJSON(value, dest any) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New("unsupported type for JSON column")
	}
}

// UserConfig is the per-user override set layered on top of the global
// provider configuration. At most one row per user; absence of a row is the
// same as an all-empty config.
//
// CustomOpenAIBaseURL/CustomOpenAIKey predate the nested providers mapping
// and are kept as a legacy fallback tier for the CUSTOM_OPENAI provider.
type UserConfig struct {
	ID                  string      `gorm:"primaryKey;size:36" json:"id"`
	UserID              string      `gorm:"uniqueIndex;size:36" json:"user_id"`
	User                User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Providers           ProviderMap `gorm:"type:text" json:"providers"`
	Models              JSONMap     `gorm:"type:text" json:"models"`
	CustomOpenAIBaseURL string      `gorm:"column:custom_openai_base_url;size:2048" json:"custom_openai_base_url,omitempty"`
	CustomOpenAIKey     string      `gorm:"column:custom_openai_key;size:512" json:"custom_openai_key,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

func (UserConfig) TableName() string {
	return "user_configs"
}
