package config

import (
	"errors"
	"testing"

	"yandex-monitoring-grafana-plugin/pkg/models"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	tests := []struct {
		name      string
		source    backend.DataSourceInstanceSettings
		expected  *Settings
		expectErr bool
		errMsg    string
	}{
		{
			name: "valid settings",
			source: backend.DataSourceInstanceSettings{
				UID:      "ds-uid",
				JSONData: []byte(`{"apiEndpoint":"api.private:443","monitoringEndpoint":"monitoring.private:443","folderId":"b1g"}`),
				DecryptedSecureJSONData: map[string]string{
					"apiKeyJson": `{"id":"aje"}`,
				},
			},
			expected: &Settings{
				UID: "ds-uid",
				Options: models.ConnectionOptions{
					APIEndpoint:        "api.private:443",
					MonitoringEndpoint: "monitoring.private:443",
					FolderID:           "b1g",
				},
				Secrets: &SecretSettings{APIKeyJSON: `{"id":"aje"}`},
			},
		},
		{
			name: "defaults are applied",
			source: backend.DataSourceInstanceSettings{
				JSONData: []byte(`{"folderId":"b1g","maxConcurrentQueries":4}`),
			},
			expected: &Settings{
				Options: models.ConnectionOptions{
					APIEndpoint:          models.DefaultAPIEndpoint,
					FolderID:             "b1g",
					MaxConcurrentQueries: 4,
				},
				Secrets: &SecretSettings{},
			},
		},
		{
			name:   "empty json data",
			source: backend.DataSourceInstanceSettings{},
			expected: &Settings{
				Options: models.ConnectionOptions{APIEndpoint: models.DefaultAPIEndpoint},
				Secrets: &SecretSettings{},
			},
		},
		{
			name: "invalid JSON",
			source: backend.DataSourceInstanceSettings{
				JSONData: []byte(`invalid json`),
			},
			expectErr: true,
			errMsg:    "could not unmarshal Settings JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := LoadSettings(tt.source)
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, settings)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, settings)
		})
	}
}

func TestSettingsError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *SettingsError
		expected string
	}{
		{
			name:     "message and wrapped error",
			err:      &SettingsError{Msg: "validation failed", Err: errors.New("underlying error")},
			expected: "validation failed: underlying error",
		},
		{
			name:     "only wrapped error",
			err:      &SettingsError{Err: errors.New("underlying error")},
			expected: "underlying error",
		},
		{
			name:     "only message",
			err:      &SettingsError{Msg: "validation failed"},
			expected: "validation failed",
		},
		{
			name:     "empty error",
			err:      &SettingsError{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestSettingsError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &SettingsError{Msg: "outer", Err: inner}
	assert.True(t, errors.Is(err, inner))
}
