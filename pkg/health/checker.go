// Package health runs the data source health check: it loads the settings,
// opens a monitoring connection and probes the read endpoint.
package health

import (
	"context"
	"fmt"

	"yandex-monitoring-grafana-plugin/pkg/client"
	"yandex-monitoring-grafana-plugin/pkg/config"
	"yandex-monitoring-grafana-plugin/pkg/validator"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

// PerformHealthCheck validates dsSettings, builds a connection through
// factory and checks that the monitoring API accepts its credentials.
// Expected failures are reported in the result with a nil error.
func PerformHealthCheck(ctx context.Context, dsSettings backend.DataSourceInstanceSettings, factory client.ClientFactory) (*backend.CheckHealthResult, error) {
	logger := log.DefaultLogger.FromContext(ctx)
	logger.Debug("health.PerformHealthCheck: Starting health check")

	settings, err := config.LoadSettings(dsSettings)
	if err != nil {
		logger.Error("health.PerformHealthCheck: Failed to load settings", "error", err)
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Failed to load datasource configuration: %s", err.Error()),
		}, nil
	}

	// Invalid settings never reach the network.
	if err := validator.ValidateSettings(settings); err != nil {
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Plugin configuration validation failed: %s", err.Error()),
		}, nil
	}

	conn, err := client.GetClient(ctx, client.ConfigFromOptions(settings.Options, settings.Secrets.APIKeyJSON), factory)
	if err != nil {
		logger.Error("health.PerformHealthCheck: Failed to create monitoring client", "error", err)
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Service account key invalid or monitoring client failed to initialize: %s", err.Error()),
		}, nil
	}
	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Warn("health.PerformHealthCheck: Failed to close connection", "error", err)
		}
	}()

	result, err := validator.CheckHealth(ctx, settings, conn)
	if err != nil {
		logger.Error("health.PerformHealthCheck: Unexpected error from validator.CheckHealth", "error", err)
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Internal error during monitoring API check: %s", err.Error()),
		}, nil
	}

	logger.Debug("health.PerformHealthCheck: Health check completed", "status", result.Status.String(), "message", result.Message)
	return result, nil
}

// ExecuteHealthCheck is the entry point used by the data source.
// Tests replace it.
var ExecuteHealthCheck = func(ctx context.Context, dsSettings backend.DataSourceInstanceSettings) (*backend.CheckHealthResult, error) {
	return PerformHealthCheck(ctx, dsSettings, &client.DefaultClientFactory{})
}
