// Package handler processes incoming query requests from Grafana and executes
// them against the Yandex Monitoring API. It handles query parsing, validation,
// execution, and response formatting with proper error handling.
package handler

import (
	"context"
	"fmt"
	"time"

	"yandex-monitoring-grafana-plugin/pkg/adapter"
	"yandex-monitoring-grafana-plugin/pkg/formatter"
	"yandex-monitoring-grafana-plugin/pkg/metrics"
	"yandex-monitoring-grafana-plugin/pkg/models"
	"yandex-monitoring-grafana-plugin/pkg/templating"
	"yandex-monitoring-grafana-plugin/pkg/validation"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseQuery decodes the query model sent by the query editor.
func ParseQuery(raw []byte) (models.Query, error) {
	var q models.Query
	if len(raw) == 0 {
		return q, nil
	}
	if err := json.Unmarshal(raw, &q); err != nil {
		return models.Query{}, err
	}
	return q, nil
}

// TimeWindowOf extracts the read window from a Grafana data query.
func TimeWindowOf(query backend.DataQuery) models.TimeWindow {
	return models.TimeWindow{
		From:          query.TimeRange.From,
		To:            query.TimeRange.To,
		Interval:      query.Interval,
		MaxDataPoints: query.MaxDataPoints,
	}
}

// HandleQuery processes a single Grafana data query through the adapter.
func HandleQuery(ctx context.Context, a *adapter.Adapter, query backend.DataQuery) *backend.DataResponse {
	resp := &backend.DataResponse{}
	logger := log.DefaultLogger.FromContext(ctx)

	partial, err := ParseQuery(query.JSON)
	if err != nil {
		resp.Error = fmt.Errorf("error parsing query JSON: %w", err)
		logger.Error("Error parsing query JSON", "refId", query.RefID, "error", err)
		return resp
	}

	if state := validation.ValidateQueryText(partial.QueryText); state.Invalid {
		logger.Warn("Query text did not pass validation", "refId", query.RefID, "reason", state.Error)
	}

	vars := templating.BuiltinVars(query.TimeRange, query.Interval)

	logger.Debug("Processing query", "refId", query.RefID, "queryText", partial.QueryText)

	metrics.IncrementConcurrentQueries()
	start := time.Now()
	prepared, results, err := a.Run(ctx, partial, vars, TimeWindowOf(query))
	metrics.RecordQuery(time.Since(start), err)
	metrics.DecrementConcurrentQueries()

	if err != nil {
		resp.Error = fmt.Errorf("query execution failed: %w", err)
		logger.Error("Query execution failed", "refId", query.RefID, "query", prepared.QueryText, "folderId", a.Options().EffectiveFolderID(prepared), "error", err)
		return resp
	}

	return formatter.FormatQueryResults(results, query.RefID, prepared.Alias)
}
