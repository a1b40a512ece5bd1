// Package validator provides validation functions for plugin settings and health checks.
// It ensures that configuration parameters are valid and that the monitoring API
// answers before queries are processed.
package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"yandex-monitoring-grafana-plugin/pkg/config"
	"yandex-monitoring-grafana-plugin/pkg/monitoring"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"go.uber.org/multierr"
)

// HealthyMessage is reported when the monitoring API answered.
const HealthyMessage = "Data source is working"

// ValidateSettings validates the plugin settings and reports every problem
// found, not only the first.
func ValidateSettings(settings *config.Settings) error {
	if settings == nil {
		return &config.SettingsError{Msg: "plugin settings cannot be nil"}
	}

	var err error
	opts := settings.Options
	if opts.FolderID == "" {
		err = multierr.Append(err, &config.SettingsError{Msg: "folder ID is required for metrics read"})
	}
	if e := validateHostPort("API endpoint", opts.APIEndpoint); e != nil {
		err = multierr.Append(err, e)
	}
	if opts.MonitoringEndpoint != "" {
		if e := validateHostPort("monitoring endpoint", opts.MonitoringEndpoint); e != nil {
			err = multierr.Append(err, e)
		}
	}
	if settings.Secrets != nil && settings.Secrets.APIKeyJSON != "" {
		var key map[string]any
		if e := json.Unmarshal([]byte(settings.Secrets.APIKeyJSON), &key); e != nil || key == nil {
			err = multierr.Append(err, &config.SettingsError{Msg: "API key must be the full JSON key file content", Err: e})
		}
	}
	if opts.MaxConcurrentQueries < 0 {
		err = multierr.Append(err, &config.SettingsError{Msg: "max concurrent queries cannot be negative"})
	}
	return err
}

func validateHostPort(name, value string) error {
	if value == "" {
		return &config.SettingsError{Msg: fmt.Sprintf("%s cannot be empty", name)}
	}
	host, port, err := net.SplitHostPort(value)
	if err != nil {
		return &config.SettingsError{Msg: fmt.Sprintf("%s must be <host>:<port>", name), Err: err}
	}
	if host == "" || port == "" {
		return &config.SettingsError{Msg: fmt.Sprintf("%s must be <host>:<port>", name)}
	}
	return nil
}

// CheckHealth checks the health of the monitoring connection using reader.
func CheckHealth(ctx context.Context, settings *config.Settings, reader monitoring.Reader) (*backend.CheckHealthResult, error) {
	if reader == nil {
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: "Monitoring reader is not initialized for health check.",
		}, nil
	}

	// First, perform basic settings validation
	if err := ValidateSettings(settings); err != nil {
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Plugin configuration validation failed: %s", err.Error()),
		}, nil
	}

	if err := reader.Check(ctx); err != nil {
		var apiErr *monitoring.APIError
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			return &backend.CheckHealthResult{
				Status:  backend.HealthStatusError,
				Message: fmt.Sprintf("Authentication failed for folder %s. Please verify the service account key and its monitoring.viewer role.", settings.Options.FolderID),
			}, nil
		}
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Failed to connect to the monitoring API. Error: %s", err.Error()),
		}, nil
	}

	return &backend.CheckHealthResult{
		Status:  backend.HealthStatusOk,
		Message: HealthyMessage,
	}, nil
}
