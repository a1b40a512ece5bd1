package client

import (
	"context"
	"time"

	"yandex-monitoring-grafana-plugin/pkg/monitoring"

	ycsdk "github.com/yandex-cloud/go-sdk"
)

// ClientFactory defines an interface for creating monitoring connections.
// This interface is crucial for enabling dependency injection, especially for testing
// scenarios where you might want to mock the SDK bootstrap
// without making actual API calls.
type ClientFactory interface {
	CreateClient(ctx context.Context, config ClientConfig) (*Connection, error)
}

// ycsdkBuildFunc is a variable that holds the SDK constructor.
// Tests replace it to avoid network access.
var ycsdkBuildFunc = func(ctx context.Context, config ycsdk.Config) (*ycsdk.SDK, error) {
	return ycsdk.Build(ctx, config)
}

// discoverEndpointFunc looks up the monitoring endpoint through the API
// endpoint service.
var discoverEndpointFunc = discoverEndpoint

// tokenSourceFunc builds the IAM token source for a built SDK.
var tokenSourceFunc = func(sdk *ycsdk.SDK) monitoring.TokenSource {
	return &iamTokenSource{middleware: ycsdk.NewIAMTokenMiddleware(sdk, time.Now)}
}

// DefaultClientFactory is the concrete implementation of the
// ClientFactory interface. It builds a live SDK session.
type DefaultClientFactory struct{}

// CreateClient builds the SDK against config.APIEndpoint, resolves the
// monitoring endpoint and returns a throttled REST reader.
func (f *DefaultClientFactory) CreateClient(ctx context.Context, config ClientConfig) (*Connection, error) {
	creds, err := credentialsFromKey(config.APIKeyJSON)
	if err != nil {
		return nil, err
	}

	buildCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sdk, err := ycsdkBuildFunc(buildCtx, ycsdk.Config{
		Credentials: creds,
		Endpoint:    config.APIEndpoint,
	})
	if err != nil {
		return nil, &ClientError{Msg: "sdk build", Err: err}
	}

	host := config.MonitoringEndpoint
	if host == "" {
		host, err = discoverEndpointFunc(ctx, sdk)
		if err != nil {
			_ = sdk.Shutdown(ctx)
			return nil, &ClientError{Msg: "monitoring endpoint discovery", Err: err}
		}
	}

	reader := monitoring.NewClient(
		buildRest(monitoringURL(host), config),
		tokenSourceFunc(sdk),
		buildLimiter(config),
	)
	return NewConnection(reader, sdk.Shutdown), nil
}

// GetClient creates a connection with the given configuration
// using the provided ClientFactory.
func GetClient(ctx context.Context, config ClientConfig, factory ClientFactory) (*Connection, error) {
	return factory.CreateClient(ctx, config)
}
