package models

import (
	"strings"
	"time"
)

// Aggregation is the grid aggregation applied to a metric query.
type Aggregation string

const (
	AggregationAVG   Aggregation = "AVG"
	AggregationMAX   Aggregation = "MAX"
	AggregationMIN   Aggregation = "MIN"
	AggregationSUM   Aggregation = "SUM"
	AggregationLAST  Aggregation = "LAST"
	AggregationCOUNT Aggregation = "COUNT"
)

// Aggregations lists every supported aggregation in editor order.
var Aggregations = []Aggregation{
	AggregationAVG,
	AggregationMAX,
	AggregationMIN,
	AggregationSUM,
	AggregationLAST,
	AggregationCOUNT,
}

// Label is the lower-case name shown in the query editor.
func (a Aggregation) Label() string {
	return strings.ToLower(string(a))
}

// ParseAggregation maps s to a known aggregation, ignoring case.
// Anything unrecognised falls back to AVG.
func ParseAggregation(s string) Aggregation {
	candidate := Aggregation(strings.ToUpper(strings.TrimSpace(s)))
	for _, a := range Aggregations {
		if a == candidate {
			return a
		}
	}
	return AggregationAVG
}

// Query represents the structure of a single query sent from Grafana.
// An empty string means the field is unset.
type Query struct {
	FolderID    string `json:"folderId,omitempty"`    // Optional, overrides the data source folder
	Aggregation string `json:"aggregation,omitempty"` // One of Aggregations; may hold a template placeholder
	Alias       string `json:"alias,omitempty"`       // Mustache template over metric labels
	QueryText   string `json:"queryText"`
}

// DefaultQuery holds the values used for unset Query fields.
var DefaultQuery = Query{
	Aggregation: string(AggregationAVG),
	QueryText:   "",
}

// NormalizeQuery fills every unset field of partial from DefaultQuery.
func NormalizeQuery(partial Query) Query {
	q := partial
	if q.FolderID == "" {
		q.FolderID = DefaultQuery.FolderID
	}
	if q.Aggregation == "" {
		q.Aggregation = DefaultQuery.Aggregation
	}
	if q.Alias == "" {
		q.Alias = DefaultQuery.Alias
	}
	if q.QueryText == "" {
		q.QueryText = DefaultQuery.QueryText
	}
	return q
}

// TimeWindow describes the host side of a query execution.
type TimeWindow struct {
	From          time.Time
	To            time.Time
	Interval      time.Duration
	MaxDataPoints int64
}
