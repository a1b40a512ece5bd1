package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"yandex-monitoring-grafana-plugin/pkg/models"
	"yandex-monitoring-grafana-plugin/pkg/monitoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ycsdk "github.com/yandex-cloud/go-sdk"
)

// MockClientFactory implements ClientFactory for testing.
type MockClientFactory struct {
	Conn *Connection
	Err  error
	Got  ClientConfig
}

func (m *MockClientFactory) CreateClient(_ context.Context, config ClientConfig) (*Connection, error) {
	m.Got = config
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Conn, nil
}

func stubSDK(t *testing.T, buildErr error, endpoint string, discoverErr error) *ycsdk.Config {
	t.Helper()
	var captured ycsdk.Config

	origBuild, origDiscover, origTokens := ycsdkBuildFunc, discoverEndpointFunc, tokenSourceFunc
	t.Cleanup(func() {
		ycsdkBuildFunc, discoverEndpointFunc, tokenSourceFunc = origBuild, origDiscover, origTokens
	})

	ycsdkBuildFunc = func(_ context.Context, config ycsdk.Config) (*ycsdk.SDK, error) {
		captured = config
		if buildErr != nil {
			return nil, buildErr
		}
		return &ycsdk.SDK{}, nil
	}
	discoverEndpointFunc = func(context.Context, *ycsdk.SDK) (string, error) {
		return endpoint, discoverErr
	}
	tokenSourceFunc = func(*ycsdk.SDK) monitoring.TokenSource {
		return monitoring.StaticToken("token")
	}
	return &captured
}

func TestDefaultClientFactory_CreateClient(t *testing.T) {
	t.Run("explicit monitoring endpoint", func(t *testing.T) {
		captured := stubSDK(t, nil, "", errors.New("discovery must not be called"))

		config := DefaultConfig()
		config.MonitoringEndpoint = "monitoring.api.cloud.yandex.net:443"

		conn, err := (&DefaultClientFactory{}).CreateClient(context.Background(), config)
		require.NoError(t, err)
		require.NotNil(t, conn)
		assert.Equal(t, models.DefaultAPIEndpoint, captured.Endpoint)
		assert.NotNil(t, captured.Credentials)
	})

	t.Run("discovered monitoring endpoint", func(t *testing.T) {
		stubSDK(t, nil, "monitoring.api.cloud.yandex.net:443", nil)

		conn, err := (&DefaultClientFactory{}).CreateClient(context.Background(), DefaultConfig())
		require.NoError(t, err)
		assert.NotNil(t, conn.Reader)
	})

	t.Run("sdk build failure", func(t *testing.T) {
		stubSDK(t, errors.New("dial failed"), "", nil)

		_, err := (&DefaultClientFactory{}).CreateClient(context.Background(), DefaultConfig())
		var clientErr *ClientError
		require.ErrorAs(t, err, &clientErr)
		assert.Equal(t, "sdk build", clientErr.Msg)
		assert.ErrorContains(t, err, "dial failed")
	})

	t.Run("invalid key json", func(t *testing.T) {
		stubSDK(t, nil, "", nil)

		config := DefaultConfig()
		config.APIKeyJSON = "not json"
		_, err := (&DefaultClientFactory{}).CreateClient(context.Background(), config)
		assert.ErrorContains(t, err, "api key unmarshal")
	})
}

func TestCredentialsFromKey(t *testing.T) {
	creds, err := credentialsFromKey("")
	require.NoError(t, err)
	assert.NotNil(t, creds)

	_, err = credentialsFromKey("{")
	assert.ErrorContains(t, err, "api key unmarshal")

	_, err = credentialsFromKey("null")
	assert.ErrorContains(t, err, "api key is empty")
}

func TestGetClient(t *testing.T) {
	conn := NewConnection(nil, nil)
	factory := &MockClientFactory{Conn: conn}

	got, err := GetClient(context.Background(), DefaultConfig(), factory)
	require.NoError(t, err)
	assert.Same(t, conn, got)

	_, err = GetClient(context.Background(), DefaultConfig(), &MockClientFactory{Err: errors.New("factory error")})
	assert.EqualError(t, err, "factory error")
}

func TestConfigFromOptions(t *testing.T) {
	config := ConfigFromOptions(models.ConnectionOptions{}, "")
	assert.Equal(t, DefaultConfig(), config)

	config = ConfigFromOptions(models.ConnectionOptions{
		APIEndpoint:        "api.private:443",
		MonitoringEndpoint: "monitoring.private:443",
		TimeoutSeconds:     5,
		MaxRetries:         1,
		RequestsPerSecond:  2.5,
	}, `{"id":"key"}`)
	assert.Equal(t, "api.private:443", config.APIEndpoint)
	assert.Equal(t, "monitoring.private:443", config.MonitoringEndpoint)
	assert.Equal(t, `{"id":"key"}`, config.APIKeyJSON)
	assert.Equal(t, 5*time.Second, config.Timeout)
	assert.Equal(t, 1, config.RetryCount)
	assert.Equal(t, 2.5, config.RequestsPerSecond)
}

func TestBuildLimiter(t *testing.T) {
	assert.Nil(t, buildLimiter(ClientConfig{}))

	limiter := buildLimiter(ClientConfig{RequestsPerSecond: 5})
	require.NotNil(t, limiter)
	assert.Equal(t, 1, limiter.Burst())
}

func TestMonitoringURL(t *testing.T) {
	assert.Equal(t, "https://monitoring.api.cloud.yandex.net:443/monitoring/v2/data/read", monitoringURL("monitoring.api.cloud.yandex.net:443"))
}

func TestConnection_Close(t *testing.T) {
	var nilConn *Connection
	assert.NoError(t, nilConn.Close(context.Background()))

	closed := false
	conn := NewConnection(nil, func(context.Context) error {
		closed = true
		return nil
	})
	assert.NoError(t, conn.Close(context.Background()))
	assert.True(t, closed)
}

func TestClientError(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		err     error
		wantMsg string
	}{
		{
			name:    "with wrapped error",
			msg:     "test error",
			err:     errors.New("wrapped error"),
			wantMsg: "monitoring client error: test error: wrapped error",
		},
		{
			name:    "without wrapped error",
			msg:     "test error",
			err:     nil,
			wantMsg: "monitoring client error: test error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ClientError{
				Msg: tt.msg,
				Err: tt.err,
			}
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, tt.err, err.Unwrap())
		})
	}
}

func TestClientFactoryInterface(t *testing.T) {
	var _ ClientFactory = (*DefaultClientFactory)(nil)
	require.Implements(t, (*ClientFactory)(nil), &DefaultClientFactory{})
}
