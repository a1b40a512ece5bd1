// Package utils defines shared constants used throughout the Yandex Monitoring
// Grafana plugin, mostly names that appear in data frames and resource routes.
package utils

const (
	// Field names used in Grafana DataFrames
	TimestampFieldName = "timestamp" // Time field of every metric frame

	// Resource routes served by the data source
	AggregationsResourcePath = "aggregations" // GET: aggregation options for the query editor
	ValidateResourcePath     = "validate"     // POST: advisory validation for a query

	// PluginID is the data source plugin id registered with Grafana.
	PluginID = "yandex-monitoring-datasource"
)
