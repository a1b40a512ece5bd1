package editor

import (
	"testing"

	"yandex-monitoring-grafana-plugin/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueryHost struct {
	changes []models.Query
	runs    int
}

func (h *recordingQueryHost) OnChange(q models.Query) { h.changes = append(h.changes, q) }
func (h *recordingQueryHost) OnRunQuery()             { h.runs++ }

type recordingOptionsHost struct {
	changes []DataSourceSettings
}

func (h *recordingOptionsHost) OnOptionsChange(s DataSourceSettings) {
	h.changes = append(h.changes, s)
}

func TestQueryEditor_Setters(t *testing.T) {
	host := &recordingQueryHost{}
	e := NewQueryEditor(models.Query{}, host)

	e.SetFolderID("b1g")
	e.SetAggregation("MAX")
	e.SetAlias("{{host}}")
	e.SetQueryText("select y from x")

	require.Len(t, host.changes, 4)
	assert.Equal(t, 4, host.runs)
	assert.Equal(t, models.Query{FolderID: "b1g"}, host.changes[0])
	assert.Equal(t, models.Query{
		FolderID:    "b1g",
		Aggregation: "MAX",
		Alias:       "{{host}}",
		QueryText:   "select y from x",
	}, host.changes[3])
	assert.Equal(t, host.changes[3], e.Query())
}

func TestQueryEditor_View(t *testing.T) {
	e := NewQueryEditor(models.Query{}, nil)

	view := e.View()
	assert.Equal(t, "AVG", view.Query.Aggregation)
	assert.False(t, view.QueryText.Invalid)
	assert.Len(t, view.Aggregations, 6)
	assert.Equal(t, SelectOption{Value: "COUNT", Label: "count"}, view.Aggregations[5])

	e.SetQueryText("select folderId from x")
	view = e.View()
	assert.True(t, view.QueryText.Invalid)
	assert.Equal(t, "do not use folderId in query", view.QueryText.Error)
	assert.Equal(t, "select folderId from x", e.Query().QueryText, "validation does not block the edit")
}

func TestConfigEditor_Fields(t *testing.T) {
	host := &recordingOptionsHost{}
	e := NewConfigEditor(DataSourceSettings{}, host)

	assert.Equal(t, models.DefaultAPIEndpoint, e.View().Options.APIEndpoint)

	e.SetAPIEndpoint("api.private:443")
	e.SetMonitoringEndpoint("monitoring.private:443")
	e.SetFolderID("b1g")

	require.Len(t, host.changes, 3)
	last := host.changes[2].JSONData
	assert.Equal(t, "api.private:443", last.APIEndpoint)
	assert.Equal(t, "monitoring.private:443", last.MonitoringEndpoint, "monitoring endpoint has its own field")
	assert.Equal(t, "b1g", last.FolderID)
}

func TestConfigEditor_APIKey(t *testing.T) {
	t.Run("set leaves configured flag alone", func(t *testing.T) {
		host := &recordingOptionsHost{}
		e := NewConfigEditor(DataSourceSettings{
			SecureJSONFields: map[string]bool{"other": true},
		}, host)

		e.SetAPIKey(`{"id":"aje"}`)

		require.Len(t, host.changes, 1)
		got := host.changes[0]
		assert.Equal(t, map[string]string{"apiKeyJson": `{"id":"aje"}`}, got.SecureJSONData)
		assert.Equal(t, map[string]bool{"other": true}, got.SecureJSONFields)
		assert.Equal(t, models.SecretPending, e.View().APIKey.State())
	})

	t.Run("reset clears flag and value", func(t *testing.T) {
		for _, start := range []DataSourceSettings{
			{},
			{SecureJSONFields: map[string]bool{"apiKeyJson": true}},
			{SecureJSONData: map[string]string{"apiKeyJson": "stale"}},
		} {
			host := &recordingOptionsHost{}
			e := NewConfigEditor(start, host)

			e.ResetAPIKey()

			require.Len(t, host.changes, 1)
			got := host.changes[0]
			assert.False(t, got.SecureJSONFields["apiKeyJson"])
			assert.Equal(t, "", got.SecureJSONData["apiKeyJson"])
			configured, value := got.APIKey().Snapshot()
			assert.False(t, configured)
			assert.Empty(t, value)
		}
	})

	t.Run("configured key is not readable", func(t *testing.T) {
		e := NewConfigEditor(DataSourceSettings{SecureJSONFields: map[string]bool{"apiKeyJson": true}}, nil)
		key := e.View().APIKey
		assert.True(t, key.Configured())
		_, ok := key.Value()
		assert.False(t, ok)
	})
}

func TestConfigEditor_DoesNotAliasHostMaps(t *testing.T) {
	fields := map[string]bool{"apiKeyJson": true}
	host := &recordingOptionsHost{}
	e := NewConfigEditor(DataSourceSettings{SecureJSONFields: fields}, host)

	e.ResetAPIKey()

	assert.True(t, fields["apiKeyJson"], "caller map must stay untouched")
	host.changes[0].SecureJSONFields["apiKeyJson"] = true
	assert.False(t, e.Settings().SecureJSONFields["apiKeyJson"])
}
