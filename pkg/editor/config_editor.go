package editor

import (
	"maps"

	"yandex-monitoring-grafana-plugin/pkg/models"
)

// DataSourceSettings is the part of the host's data source record the
// configuration editor edits.
type DataSourceSettings struct {
	JSONData         models.ConnectionOptions `json:"jsonData"`
	SecureJSONFields map[string]bool          `json:"secureJsonFields"`
	SecureJSONData   map[string]string        `json:"secureJsonData,omitempty"`
}

// APIKey returns the secret key field state.
func (s DataSourceSettings) APIKey() models.SecretField {
	return models.SecretFromSettings(models.APIKeyField, s.SecureJSONFields, s.SecureJSONData)
}

func (s DataSourceSettings) clone() DataSourceSettings {
	out := s
	out.SecureJSONFields = maps.Clone(s.SecureJSONFields)
	out.SecureJSONData = maps.Clone(s.SecureJSONData)
	return out
}

// OptionsHost receives configuration edits.
type OptionsHost interface {
	OnOptionsChange(s DataSourceSettings)
}

// ConfigView is what the configuration editor displays.
type ConfigView struct {
	Options models.ConnectionOptions
	APIKey  models.SecretField
}

// ConfigEditor binds one data source record to its host.
type ConfigEditor struct {
	settings DataSourceSettings
	host     OptionsHost
}

func NewConfigEditor(settings DataSourceSettings, host OptionsHost) *ConfigEditor {
	return &ConfigEditor{settings: settings.clone(), host: host}
}

// Settings returns the record as last sent to the host.
func (e *ConfigEditor) Settings() DataSourceSettings { return e.settings.clone() }

// View returns the normalized options and the key state.
func (e *ConfigEditor) View() ConfigView {
	return ConfigView{
		Options: models.NormalizeOptions(e.settings.JSONData),
		APIKey:  e.settings.APIKey(),
	}
}

func (e *ConfigEditor) SetAPIEndpoint(v string) {
	e.update(func(s *DataSourceSettings) { s.JSONData.APIEndpoint = v })
}

func (e *ConfigEditor) SetMonitoringEndpoint(v string) {
	e.update(func(s *DataSourceSettings) { s.JSONData.MonitoringEndpoint = v })
}

func (e *ConfigEditor) SetFolderID(v string) {
	e.update(func(s *DataSourceSettings) { s.JSONData.FolderID = v })
}

// SetAPIKey replaces the pending key. The configured flag is left to the
// host, which sets it once the value is stored.
func (e *ConfigEditor) SetAPIKey(v string) {
	e.update(func(s *DataSourceSettings) {
		pending, _ := e.settings.APIKey().Set(v).Value()
		s.SecureJSONData = map[string]string{models.APIKeyField: pending}
	})
}

// ResetAPIKey un-configures the key and clears the pending value.
func (e *ConfigEditor) ResetAPIKey() {
	e.update(func(s *DataSourceSettings) {
		configured, value := e.settings.APIKey().Reset().Snapshot()
		if s.SecureJSONFields == nil {
			s.SecureJSONFields = map[string]bool{}
		}
		if s.SecureJSONData == nil {
			s.SecureJSONData = map[string]string{}
		}
		s.SecureJSONFields[models.APIKeyField] = configured
		s.SecureJSONData[models.APIKeyField] = value
	})
}

func (e *ConfigEditor) update(change func(s *DataSourceSettings)) {
	next := e.settings.clone()
	change(&next)
	e.settings = next
	if e.host != nil {
		e.host.OnOptionsChange(next.clone())
	}
}
