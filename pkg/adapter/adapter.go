// Package adapter prepares queries for execution: it fills defaults,
// interpolates variables and hands the result to an injected Executor.
package adapter

import (
	"context"

	"yandex-monitoring-grafana-plugin/pkg/models"
	"yandex-monitoring-grafana-plugin/pkg/monitoring"
	"yandex-monitoring-grafana-plugin/pkg/templating"
)

// Executor runs a prepared query against the backend.
type Executor interface {
	Execute(ctx context.Context, q models.Query, opts models.ConnectionOptions, window models.TimeWindow) (*monitoring.ReadResponse, error)
}

// Adapter binds an Executor to one data source's options and variable
// resolver.
type Adapter struct {
	executor Executor
	options  models.ConnectionOptions
	resolve  templating.Resolver
}

// New returns an Adapter. A nil resolve uses templating.Interpolate.
func New(executor Executor, options models.ConnectionOptions, resolve templating.Resolver) *Adapter {
	if resolve == nil {
		resolve = templating.Interpolate
	}
	return &Adapter{
		executor: executor,
		options:  models.NormalizeOptions(options),
		resolve:  resolve,
	}
}

// Options returns the normalized data source options.
func (a *Adapter) Options() models.ConnectionOptions { return a.options }

// Prepare normalizes partial and substitutes vars into it.
func (a *Adapter) Prepare(partial models.Query, vars templating.ScopedVars) models.Query {
	return templating.SubstituteVariables(models.NormalizeQuery(partial), vars, a.resolve)
}

// Run prepares partial and executes it. The prepared query is returned
// even when execution fails.
func (a *Adapter) Run(ctx context.Context, partial models.Query, vars templating.ScopedVars, window models.TimeWindow) (models.Query, *monitoring.ReadResponse, error) {
	q := a.Prepare(partial, vars)
	resp, err := a.executor.Execute(ctx, q, a.options, window)
	return q, resp, err
}
