// Package query provides functionality for executing monitoring queries.
// It handles query validation, execution, and error handling.
package query

import (
	"context"
	"fmt"

	"yandex-monitoring-grafana-plugin/pkg/adapter"
	"yandex-monitoring-grafana-plugin/pkg/models"
	"yandex-monitoring-grafana-plugin/pkg/monitoring"
)

// ExecutionError represents an error during query execution.
type ExecutionError struct {
	Query string
	Msg   string
	Err   error // Wrapped error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query execution error for '%s': %s: %v", e.Query, e.Msg, e.Err)
	}
	return fmt.Sprintf("query execution error for '%s': %s", e.Query, e.Msg)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

var _ adapter.Executor = (*Executor)(nil)

// Executor runs prepared queries against a monitoring.Reader.
type Executor struct {
	reader monitoring.Reader
}

// NewExecutor creates a new query executor with the given reader.
func NewExecutor(reader monitoring.Reader) *Executor {
	return &Executor{reader: reader}
}

// Execute reads the metrics selected by q. The query folder overrides the
// data source folder.
func (e *Executor) Execute(ctx context.Context, q models.Query, opts models.ConnectionOptions, window models.TimeWindow) (*monitoring.ReadResponse, error) {
	if e.reader == nil {
		return nil, &ExecutionError{Query: q.QueryText, Msg: "monitoring reader is nil, cannot execute query"}
	}
	if q.QueryText == "" {
		return nil, &ExecutionError{Query: q.QueryText, Msg: "query text cannot be empty"}
	}
	folderID := opts.EffectiveFolderID(q)
	if folderID == "" {
		return nil, &ExecutionError{Query: q.QueryText, Msg: "folder ID is not set on the query or the data source"}
	}

	results, err := e.reader.Read(ctx, folderID, BuildReadRequest(q, window))
	if err != nil {
		return nil, &ExecutionError{Query: q.QueryText, Msg: "error from monitoring API", Err: err}
	}
	return results, nil
}

// BuildReadRequest converts a prepared query and its window into the API
// request body.
func BuildReadRequest(q models.Query, window models.TimeWindow) monitoring.ReadRequest {
	return monitoring.ReadRequest{
		Query:    q.QueryText,
		FromTime: window.From,
		ToTime:   window.To,
		Downsampling: monitoring.Downsampling{
			GridAggregation: monitoring.GridAggregationOf(q.Aggregation),
			MaxPoints:       int(window.MaxDataPoints),
		},
	}
}
