// Package formatter handles the conversion of Yandex Monitoring read
// responses into Grafana data frames. Every returned metric becomes one
// time series frame.
package formatter

import (
	"time"

	"yandex-monitoring-grafana-plugin/pkg/monitoring"
	"yandex-monitoring-grafana-plugin/pkg/utils"

	"github.com/cbroglie/mustache"
	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/grafana/grafana-plugin-sdk-go/data"
)

// FormatQueryResults creates one Grafana DataFrame per metric in results.
// Frames are named by refID. Metrics carrying no values are skipped.
func FormatQueryResults(results *monitoring.ReadResponse, refID, alias string) *backend.DataResponse {
	resp := &backend.DataResponse{}
	if results == nil {
		return resp
	}

	for _, metric := range results.Metrics {
		frame := FormatMetric(metric, refID, alias)
		if frame == nil {
			log.DefaultLogger.Debug("Skipping metric without values", "refId", refID, "metric", metric.Name)
			continue
		}
		resp.Frames = append(resp.Frames, frame)
	}

	log.DefaultLogger.Debug("Formatted query results", "refId", refID, "metrics", len(results.Metrics), "frames", len(resp.Frames))
	return resp
}

// FormatMetric converts a single metric into a frame with a timestamp field
// and a value field. It returns nil when the metric has no values.
func FormatMetric(metric monitoring.Metric, refID, alias string) *data.Frame {
	ts := metric.Timeseries

	var values any
	var n int
	switch {
	case len(ts.DoubleValues) > 0:
		n = min(len(ts.Timestamps), len(ts.DoubleValues))
		values = ts.DoubleValues[:n]
	case len(ts.Int64Values) > 0:
		n = min(len(ts.Timestamps), len(ts.Int64Values))
		values = ts.Int64Values[:n]
	default:
		return nil
	}

	timestamps := make([]time.Time, n)
	for i := range timestamps {
		timestamps[i] = ts.Timestamps[i].Time()
	}

	frame := data.NewFrame(refID,
		data.NewField(utils.TimestampFieldName, nil, timestamps),
		valueField(alias, metric.Name, metric.Labels, values),
	)
	frame.SetMeta(&data.FrameMeta{
		PreferredVisualization: data.VisTypeGraph,
	})
	return frame
}

// valueField names the field after the metric and its labels. A non-empty
// alias is rendered over the labels and replaces both.
func valueField(alias, name string, labels map[string]string, values any) *data.Field {
	if alias != "" {
		rendered, err := RenderAlias(alias, labels)
		if err == nil {
			name = rendered
			labels = nil
		} else {
			log.DefaultLogger.Warn("Failed to render alias, using metric name", "alias", alias, "error", err)
		}
	}
	return data.NewField(name, labels, values)
}

// RenderAlias renders alias as a mustache template with labels as context.
func RenderAlias(alias string, labels map[string]string) (string, error) {
	return mustache.Render(alias, labels)
}
