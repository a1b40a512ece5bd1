package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"yandex-monitoring-grafana-plugin/pkg/client"
	"yandex-monitoring-grafana-plugin/pkg/monitoring"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/data"
	"github.com/stretchr/testify/require"
)

// MockTimeNow returns a fixed time for testing
func MockTimeNow() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

// CreateTestQuery creates a test query with the given refID and query string
func CreateTestQuery(t *testing.T, refID string, query string) backend.DataQuery {
	t.Helper()

	queryJSON := map[string]interface{}{
		"queryText": query,
	}

	jsonBytes, err := json.Marshal(queryJSON)
	require.NoError(t, err)

	return backend.DataQuery{
		RefID:         refID,
		JSON:          jsonBytes,
		MaxDataPoints: 1000,
		Interval:      time.Minute,
		TimeRange: backend.TimeRange{
			From: MockTimeNow().Add(-1 * time.Hour),
			To:   MockTimeNow(),
		},
	}
}

// CreateTestSettings creates test datasource settings
func CreateTestSettings(t *testing.T, folderID string, apiKeyJSON string) *backend.DataSourceInstanceSettings {
	t.Helper()

	jsonData, err := json.Marshal(map[string]string{"folderId": folderID})
	require.NoError(t, err)

	settings := &backend.DataSourceInstanceSettings{
		UID:      "test-uid",
		JSONData: jsonData,
	}
	if apiKeyJSON != "" {
		settings.DecryptedSecureJSONData = map[string]string{"apiKeyJson": apiKeyJSON}
	}
	return settings
}

// CreateTestReadResponse builds a read response with one double valued
// metric, one point per minute starting at MockTimeNow.
func CreateTestReadResponse(name string, labels map[string]string, values ...float64) *monitoring.ReadResponse {
	timestamps := make([]monitoring.UnixTime, len(values))
	for i := range values {
		timestamps[i] = monitoring.UnixTime(MockTimeNow().Add(time.Duration(i) * time.Minute))
	}
	return &monitoring.ReadResponse{Metrics: []monitoring.Metric{{
		Name:   name,
		Labels: labels,
		Type:   "DGAUGE",
		Timeseries: monitoring.Timeseries{
			Timestamps:   timestamps,
			DoubleValues: values,
		},
	}}}
}

// AssertFrameFields checks if a data frame has the expected fields
func AssertFrameFields(t *testing.T, frame *data.Frame, expectedFields []string) {
	t.Helper()

	require.Equal(t, len(expectedFields), len(frame.Fields), "number of fields")
	for i, field := range frame.Fields {
		require.Equal(t, expectedFields[i], field.Name, "field name")
	}
}

// CreateTestPluginContext creates a test plugin context
func CreateTestPluginContext(t *testing.T, settings *backend.DataSourceInstanceSettings) backend.PluginContext {
	t.Helper()
	return backend.PluginContext{
		DataSourceInstanceSettings: settings,
	}
}

// MockReader implements monitoring.Reader for tests.
type MockReader struct {
	mu       sync.Mutex
	Response *monitoring.ReadResponse
	ReadErr  error
	CheckErr error
	Folders  []string
	Requests []monitoring.ReadRequest
}

func (m *MockReader) Read(_ context.Context, folderID string, req monitoring.ReadRequest) (*monitoring.ReadResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Folders = append(m.Folders, folderID)
	m.Requests = append(m.Requests, req)
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.Response, nil
}

func (m *MockReader) Check(context.Context) error { return m.CheckErr }

// MockClientFactory implements client.ClientFactory for tests. Closed
// counts the connections it handed out that were closed.
type MockClientFactory struct {
	mu      sync.Mutex
	Reader  monitoring.Reader
	Err     error
	Configs []client.ClientConfig
	Closed  int
}

func (m *MockClientFactory) CreateClient(_ context.Context, config client.ClientConfig) (*client.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Configs = append(m.Configs, config)
	if m.Err != nil {
		return nil, m.Err
	}
	return client.NewConnection(m.Reader, func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Closed++
		return nil
	}), nil
}

// Calls returns how many connections were requested.
func (m *MockClientFactory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Configs)
}
