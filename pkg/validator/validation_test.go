package validator

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"yandex-monitoring-grafana-plugin/pkg/config"
	"yandex-monitoring-grafana-plugin/pkg/models"
	"yandex-monitoring-grafana-plugin/pkg/monitoring"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func validSettings() *config.Settings {
	return &config.Settings{
		Options: models.ConnectionOptions{
			APIEndpoint: models.DefaultAPIEndpoint,
			FolderID:    "b1g",
		},
		Secrets: &config.SecretSettings{},
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(s *config.Settings)
		nilInput bool
		wantErrs []string
	}{
		{name: "valid settings", mutate: func(*config.Settings) {}},
		{name: "nil settings", nilInput: true, wantErrs: []string{"plugin settings cannot be nil"}},
		{
			name:     "missing folder",
			mutate:   func(s *config.Settings) { s.Options.FolderID = "" },
			wantErrs: []string{"folder ID is required"},
		},
		{
			name:     "endpoint without port",
			mutate:   func(s *config.Settings) { s.Options.APIEndpoint = "api.cloud.yandex.net" },
			wantErrs: []string{"API endpoint must be <host>:<port>"},
		},
		{
			name:     "bad monitoring endpoint",
			mutate:   func(s *config.Settings) { s.Options.MonitoringEndpoint = ":443" },
			wantErrs: []string{"monitoring endpoint must be <host>:<port>"},
		},
		{
			name:     "key is not json",
			mutate:   func(s *config.Settings) { s.Secrets.APIKeyJSON = "AQVN..." },
			wantErrs: []string{"full JSON key file content"},
		},
		{
			name:   "key is a json object",
			mutate: func(s *config.Settings) { s.Secrets.APIKeyJSON = `{"id":"aje","private_key":"..."}` },
		},
		{
			name: "every problem is reported",
			mutate: func(s *config.Settings) {
				s.Options.FolderID = ""
				s.Options.APIEndpoint = ""
				s.Options.MaxConcurrentQueries = -1
			},
			wantErrs: []string{"folder ID is required", "API endpoint cannot be empty", "cannot be negative"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var settings *config.Settings
			if !tt.nilInput {
				settings = validSettings()
				tt.mutate(settings)
			}
			err := ValidateSettings(settings)
			if len(tt.wantErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if !tt.nilInput {
				assert.Len(t, multierr.Errors(err), len(tt.wantErrs))
			}
			for _, want := range tt.wantErrs {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

// mockReader implements monitoring.Reader for testing
type mockReader struct {
	checkErr error
}

func (m *mockReader) Read(context.Context, string, monitoring.ReadRequest) (*monitoring.ReadResponse, error) {
	return &monitoring.ReadResponse{}, nil
}

func (m *mockReader) Check(context.Context) error { return m.checkErr }

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name        string
		settings    *config.Settings
		reader      monitoring.Reader
		wantStatus  backend.HealthStatus
		wantMessage string
	}{
		{
			name:        "healthy",
			settings:    validSettings(),
			reader:      &mockReader{},
			wantStatus:  backend.HealthStatusOk,
			wantMessage: "Data source is working",
		},
		{
			name:        "nil reader",
			settings:    validSettings(),
			reader:      nil,
			wantStatus:  backend.HealthStatusError,
			wantMessage: "not initialized",
		},
		{
			name:        "invalid settings",
			settings:    &config.Settings{Options: models.ConnectionOptions{APIEndpoint: models.DefaultAPIEndpoint}},
			reader:      &mockReader{},
			wantStatus:  backend.HealthStatusError,
			wantMessage: "Plugin configuration validation failed",
		},
		{
			name:        "unauthorized",
			settings:    validSettings(),
			reader:      &mockReader{checkErr: &monitoring.APIError{StatusCode: http.StatusUnauthorized, Msg: "api check"}},
			wantStatus:  backend.HealthStatusError,
			wantMessage: "Authentication failed for folder b1g",
		},
		{
			name:        "unreachable",
			settings:    validSettings(),
			reader:      &mockReader{checkErr: errors.New("connection refused")},
			wantStatus:  backend.HealthStatusError,
			wantMessage: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CheckHealth(context.Background(), tt.settings, tt.reader)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Contains(t, result.Message, tt.wantMessage)
		})
	}
}
