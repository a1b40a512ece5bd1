package models

// DefaultAPIEndpoint is the public Yandex Cloud API endpoint.
const DefaultAPIEndpoint = "api.cloud.yandex.net:443"

// APIKeyField is the secure settings key holding the service account key file.
const APIKeyField = "apiKeyJson"

// ConnectionOptions holds the non-secret configuration of a data source
// instance. It is shared by every query issued against that instance.
type ConnectionOptions struct {
	APIEndpoint        string `json:"apiEndpoint"`
	MonitoringEndpoint string `json:"monitoringEndpoint"`
	FolderID           string `json:"folderId"`

	// Client tunables, zero means the client default.
	TimeoutSeconds       int     `json:"timeoutSeconds,omitempty"`
	MaxRetries           int     `json:"maxRetries,omitempty"`
	RequestsPerSecond    float64 `json:"requestsPerSecond,omitempty"`
	MaxConcurrentQueries int     `json:"maxConcurrentQueries,omitempty"`
}

// DefaultOptions holds the values used for unset ConnectionOptions fields.
var DefaultOptions = ConnectionOptions{
	APIEndpoint: DefaultAPIEndpoint,
}

// NormalizeOptions fills every unset field of partial from DefaultOptions.
func NormalizeOptions(partial ConnectionOptions) ConnectionOptions {
	o := partial
	if o.APIEndpoint == "" {
		o.APIEndpoint = DefaultOptions.APIEndpoint
	}
	if o.MonitoringEndpoint == "" {
		o.MonitoringEndpoint = DefaultOptions.MonitoringEndpoint
	}
	if o.FolderID == "" {
		o.FolderID = DefaultOptions.FolderID
	}
	return o
}

// EffectiveFolderID returns the query folder when set, otherwise the
// data source folder.
func (o ConnectionOptions) EffectiveFolderID(q Query) string {
	if q.FolderID != "" {
		return q.FolderID
	}
	return o.FolderID
}
