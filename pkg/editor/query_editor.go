// Package editor holds the state binding behind the query and configuration
// editors. Each setter copies the current value, changes one field and hands
// the result to the host; nothing here renders.
package editor

import (
	"yandex-monitoring-grafana-plugin/pkg/models"
	"yandex-monitoring-grafana-plugin/pkg/validation"
)

// QueryHost receives query edits.
type QueryHost interface {
	OnChange(q models.Query)
	OnRunQuery()
}

// SelectOption is one entry of a select input.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AggregationOptions returns the aggregation select entries.
func AggregationOptions() []SelectOption {
	opts := make([]SelectOption, 0, len(models.Aggregations))
	for _, a := range models.Aggregations {
		opts = append(opts, SelectOption{Value: string(a), Label: a.Label()})
	}
	return opts
}

// QueryView is what the query editor displays.
type QueryView struct {
	Query        models.Query
	Aggregations []SelectOption
	QueryText    validation.FieldState
}

// QueryEditor binds one query to its host.
type QueryEditor struct {
	query models.Query
	host  QueryHost
}

func NewQueryEditor(query models.Query, host QueryHost) *QueryEditor {
	return &QueryEditor{query: query, host: host}
}

// Query returns the query as last sent to the host.
func (e *QueryEditor) Query() models.Query { return e.query }

// View returns the normalized query and its validation state.
func (e *QueryEditor) View() QueryView {
	q := models.NormalizeQuery(e.query)
	return QueryView{
		Query:        q,
		Aggregations: AggregationOptions(),
		QueryText:    validation.ValidateQueryText(q.QueryText),
	}
}

func (e *QueryEditor) SetFolderID(v string) {
	e.update(func(q *models.Query) { q.FolderID = v })
}

func (e *QueryEditor) SetAggregation(v string) {
	e.update(func(q *models.Query) { q.Aggregation = v })
}

func (e *QueryEditor) SetAlias(v string) {
	e.update(func(q *models.Query) { q.Alias = v })
}

func (e *QueryEditor) SetQueryText(v string) {
	e.update(func(q *models.Query) { q.QueryText = v })
}

// update notifies the host with the new query and asks it to re-run.
func (e *QueryEditor) update(change func(q *models.Query)) {
	next := e.query
	change(&next)
	e.query = next
	if e.host == nil {
		return
	}
	e.host.OnChange(next)
	e.host.OnRunQuery()
}
