// Package config provides configuration management for the Yandex Cloud
// Monitoring data source. It handles loading plugin settings from Grafana.
package config

import (
	"encoding/json"
	"fmt"

	"yandex-monitoring-grafana-plugin/pkg/models"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/mitchellh/mapstructure"
)

// SettingsError represents an error specifically related to plugin settings.
type SettingsError struct {
	Msg string
	Err error // Wrapped error
}

func (e *SettingsError) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %v", e.Msg, e.Err)
		}
		return fmt.Sprintf("%v", e.Err)
	}
	return e.Msg
}

func (e *SettingsError) Unwrap() error {
	return e.Err
}

// Settings holds the configuration settings for one data source instance.
type Settings struct {
	UID     string
	Options models.ConnectionOptions
	Secrets *SecretSettings
}

// SecretSettings holds the decrypted secure data.
type SecretSettings struct {
	APIKeyJSON string `mapstructure:"apiKeyJson"`
}

// LoadSettings unmarshals the JSON data and decrypted secure JSON data
// from Grafana's DataSourceInstanceSettings into a Settings struct.
// Unset options are filled from models.DefaultOptions.
func LoadSettings(source backend.DataSourceInstanceSettings) (*Settings, error) {
	var opts models.ConnectionOptions
	if len(source.JSONData) > 0 {
		if err := json.Unmarshal(source.JSONData, &opts); err != nil {
			return nil, &SettingsError{Msg: "could not unmarshal Settings JSON", Err: err}
		}
	}

	secrets, err := loadSecretSettings(source.DecryptedSecureJSONData)
	if err != nil {
		return nil, &SettingsError{Err: err}
	}

	return &Settings{
		UID:     source.UID,
		Options: models.NormalizeOptions(opts),
		Secrets: secrets,
	}, nil
}

// loadSecretSettings extracts secure data from the decrypted map.
// A missing key is allowed: the instance service account is used then.
func loadSecretSettings(source map[string]string) (*SecretSettings, error) {
	var secrets SecretSettings
	if len(source) == 0 {
		return &secrets, nil
	}
	if err := mapstructure.Decode(source, &secrets); err != nil {
		return nil, &SettingsError{Msg: "could not decode secure settings", Err: err}
	}
	return &secrets, nil
}
