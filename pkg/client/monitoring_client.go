package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"yandex-monitoring-grafana-plugin/pkg/models"
	"yandex-monitoring-grafana-plugin/pkg/monitoring"

	"github.com/go-resty/resty/v2"
	"github.com/yandex-cloud/go-genproto/yandex/cloud/endpoint"
	ycsdk "github.com/yandex-cloud/go-sdk"
	"github.com/yandex-cloud/go-sdk/iamkey"
	"golang.org/x/time/rate"
)

// ClientConfig holds configuration options for the monitoring client
type ClientConfig struct {
	APIEndpoint        string        // Yandex Cloud API host:port the SDK is built against
	MonitoringEndpoint string        // Monitoring host:port; empty means discover it through the API endpoint service
	APIKeyJSON         string        // Service account key file content; empty means the instance service account
	Timeout            time.Duration // Per request timeout of the REST client
	RetryCount         int           // Retries after a failed or throttled read
	RetryWait          time.Duration // Initial wait between retries
	UserAgent          string        // User-Agent header sent with every read
	RequestsPerSecond  float64       // Read throttle rate; zero or less disables throttling
	Burst              int           // Reads allowed at once above the rate; zero or less means 1
}

// DefaultConfig returns a ClientConfig with sensible defaults
func DefaultConfig() ClientConfig {
	return ClientConfig{
		APIEndpoint:       models.DefaultAPIEndpoint,
		Timeout:           30 * time.Second,
		RetryCount:        3,
		RetryWait:         1 * time.Second,
		UserAgent:         "yandex-monitoring-grafana-plugin",
		RequestsPerSecond: 20,
		Burst:             20,
	}
}

// ConfigFromOptions applies the data source options and key on top of
// DefaultConfig.
func ConfigFromOptions(opts models.ConnectionOptions, apiKeyJSON string) ClientConfig {
	config := DefaultConfig()
	opts = models.NormalizeOptions(opts)
	config.APIEndpoint = opts.APIEndpoint
	config.MonitoringEndpoint = opts.MonitoringEndpoint
	config.APIKeyJSON = apiKeyJSON
	if opts.TimeoutSeconds > 0 {
		config.Timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}
	if opts.MaxRetries > 0 {
		config.RetryCount = opts.MaxRetries
	}
	if opts.RequestsPerSecond > 0 {
		config.RequestsPerSecond = opts.RequestsPerSecond
	}
	return config
}

// ClientError represents an error specifically related to monitoring client setup.
type ClientError struct {
	Msg string
	Err error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("monitoring client error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("monitoring client error: %s", e.Msg)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Connection is a ready monitoring.Reader bound to its SDK session.
type Connection struct {
	monitoring.Reader
	closer func(ctx context.Context) error
}

// NewConnection wraps reader. closer may be nil.
func NewConnection(reader monitoring.Reader, closer func(ctx context.Context) error) *Connection {
	return &Connection{Reader: reader, closer: closer}
}

// Close releases the SDK session.
func (c *Connection) Close(ctx context.Context) error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer(ctx)
}

// credentialsFromKey picks the instance service account when no key is
// given, otherwise the service account key from keyJSON.
func credentialsFromKey(keyJSON string) (ycsdk.Credentials, error) {
	if keyJSON == "" {
		return ycsdk.InstanceServiceAccount(), nil
	}
	var key *iamkey.Key
	if err := json.Unmarshal([]byte(keyJSON), &key); err != nil {
		return nil, &ClientError{Msg: "api key unmarshal", Err: err}
	}
	if key == nil {
		return nil, &ClientError{Msg: "api key is empty"}
	}
	creds, err := ycsdk.ServiceAccountKey(key)
	if err != nil {
		return nil, &ClientError{Msg: "service account key", Err: err}
	}
	return creds, nil
}

// monitoringURL builds the read URL for host, which is <host>:<port>.
func monitoringURL(host string) string {
	u := url.URL{
		Scheme: "https",
		Host:   host,
		Path:   monitoring.ReadPath,
	}
	return u.String()
}

func buildRest(baseURL string, config ClientConfig) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetAuthScheme("Bearer").
		SetHeader("User-Agent", config.UserAgent).
		SetTimeout(config.Timeout).
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(config.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil {
				return err != nil
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
}

func buildLimiter(config ClientConfig) *rate.Limiter {
	if config.RequestsPerSecond <= 0 {
		return nil
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
}

// iamTokenSource adapts the SDK token middleware to monitoring.TokenSource.
type iamTokenSource struct {
	middleware *ycsdk.IamTokenMiddleware
}

func (s *iamTokenSource) Token(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	token, err := s.middleware.GetIAMToken(ctx, true)
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return token, nil
}

func discoverEndpoint(ctx context.Context, sdk *ycsdk.SDK) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := sdk.ApiEndpoint().ApiEndpoint().Get(ctx, &endpoint.GetApiEndpointRequest{ApiEndpointId: "monitoring"})
	if err != nil {
		return "", err
	}
	return resp.Address, nil
}
