// Package plugin implements the Yandex Monitoring Grafana datasource plugin.
// It provides functionality to query Yandex Cloud Monitoring and integrate it with Grafana.
package plugin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"yandex-monitoring-grafana-plugin/pkg/adapter"
	"yandex-monitoring-grafana-plugin/pkg/api/query"
	"yandex-monitoring-grafana-plugin/pkg/client"
	"yandex-monitoring-grafana-plugin/pkg/config"
	"yandex-monitoring-grafana-plugin/pkg/editor"
	"yandex-monitoring-grafana-plugin/pkg/handler"
	"yandex-monitoring-grafana-plugin/pkg/health"
	"yandex-monitoring-grafana-plugin/pkg/metrics"
	"yandex-monitoring-grafana-plugin/pkg/monitoring"
	"yandex-monitoring-grafana-plugin/pkg/utils"
	"yandex-monitoring-grafana-plugin/pkg/validation"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/instancemgmt"
	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
	"github.com/grafana/grafana-plugin-sdk-go/backend/resource/httpadapter"
	"github.com/grafana/grafana-plugin-sdk-go/backend/tracing"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	_ backend.QueryDataHandler      = (*Datasource)(nil)
	_ backend.CheckHealthHandler    = (*Datasource)(nil)
	_ backend.CallResourceHandler   = (*Datasource)(nil)
	_ instancemgmt.InstanceDisposer = (*Datasource)(nil)
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultMaxConcurrentQueries bounds the queries of one request that run
// at the same time when the data source does not set a limit.
const DefaultMaxConcurrentQueries = 10

const disposeTimeout = 5 * time.Second

// Datasource implements the Yandex Monitoring Grafana datasource plugin.
// It handles data queries, health checks, and resource calls.
type Datasource struct {
	backend.CallResourceHandler

	settings *config.Settings
	factory  client.ClientFactory
	adapter  *adapter.Adapter

	mu   sync.Mutex
	conn *client.Connection
}

// NewDatasource creates a new instance of the Yandex Monitoring datasource.
// It is called by the Grafana plugin SDK when a new datasource instance is needed.
func NewDatasource(ctx context.Context, settings backend.DataSourceInstanceSettings) (instancemgmt.Instance, error) {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.DefaultLogger.FromContext(ctx).Warn("Failed to register metrics", "error", err)
	}
	return newDatasource(settings, &client.DefaultClientFactory{})
}

func newDatasource(settings backend.DataSourceInstanceSettings, factory client.ClientFactory) (*Datasource, error) {
	cfg, err := config.LoadSettings(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load plugin settings: %w", err)
	}

	d := &Datasource{
		settings: cfg,
		factory:  factory,
	}
	d.adapter = adapter.New(query.NewExecutor(&lazyReader{d: d}), cfg.Options, nil)
	d.CallResourceHandler = httpadapter.New(d.resourceMux())
	return d, nil
}

// connection returns the cached monitoring connection, creating it on
// first use. A failed attempt is retried by the next caller.
func (d *Datasource) connection(ctx context.Context) (*client.Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		return d.conn, nil
	}
	conn, err := client.GetClient(ctx, client.ConfigFromOptions(d.settings.Options, d.settings.Secrets.APIKeyJSON), d.factory)
	if err != nil {
		return nil, err
	}
	d.conn = conn
	return conn, nil
}

// lazyReader defers connection setup to the first read.
type lazyReader struct {
	d *Datasource
}

func (r *lazyReader) Read(ctx context.Context, folderID string, req monitoring.ReadRequest) (*monitoring.ReadResponse, error) {
	conn, err := r.d.connection(ctx)
	if err != nil {
		return nil, err
	}
	return conn.Read(ctx, folderID, req)
}

func (r *lazyReader) Check(ctx context.Context) error {
	conn, err := r.d.connection(ctx)
	if err != nil {
		return err
	}
	return conn.Check(ctx)
}

// Dispose cleans up resources when a datasource instance is no longer needed.
// It is called by the Grafana plugin SDK when a datasource instance is being disposed.
func (d *Datasource) Dispose() {
	d.mu.Lock()
	conn := d.conn
	d.conn = nil
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), disposeTimeout)
	defer cancel()
	if err := conn.Close(ctx); err != nil {
		log.DefaultLogger.Error("Plugin dispose error", "error", err)
		return
	}
	log.DefaultLogger.Debug("Yandex Monitoring Datasource instance disposed")
}

// QueryData handles incoming data queries from Grafana.
// Queries run concurrently, bounded by the configured limit, and fail
// independently of each other.
func (d *Datasource) QueryData(ctx context.Context, req *backend.QueryDataRequest) (*backend.QueryDataResponse, error) {
	if err := validation.ValidateQueryRequest(req); err != nil {
		return nil, err
	}

	response := backend.NewQueryDataResponse()
	var mu sync.Mutex

	limit := d.settings.Options.MaxConcurrentQueries
	if limit <= 0 {
		limit = DefaultMaxConcurrentQueries
	}

	// The group only bounds parallelism. Query failures are carried on each
	// DataResponse, so no goroutine returns an error.
	var g errgroup.Group
	g.SetLimit(limit)
	for _, q := range req.Queries {
		g.Go(func() error {
			res := d.runQuery(ctx, q)
			mu.Lock()
			response.Responses[q.RefID] = *res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return response, nil
}

func (d *Datasource) runQuery(ctx context.Context, q backend.DataQuery) *backend.DataResponse {
	ctx, span := tracing.DefaultTracer().Start(ctx, "yandex-monitoring query", trace.WithAttributes(
		attribute.String("refId", q.RefID),
		attribute.Int64("maxDataPoints", q.MaxDataPoints),
		attribute.String("from", q.TimeRange.From.String()),
		attribute.String("to", q.TimeRange.To.String()),
	))
	defer span.End()

	res := handler.HandleQuery(ctx, d.adapter, q)
	if res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, res.Error.Error())
	} else {
		span.SetAttributes(attribute.Int("frames", len(res.Frames)))
	}
	return res
}

// CheckHealth performs a health check of the datasource.
// It validates the configuration and tests the connection to the monitoring API.
func (d *Datasource) CheckHealth(ctx context.Context, req *backend.CheckHealthRequest) (*backend.CheckHealthResult, error) {
	log.DefaultLogger.FromContext(ctx).Debug("Datasource.CheckHealth: Initiating health check routing")

	if req.PluginContext.DataSourceInstanceSettings == nil {
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: "Health check request carries no data source settings",
		}, nil
	}

	healthResult, err := health.ExecuteHealthCheck(ctx, *req.PluginContext.DataSourceInstanceSettings)
	if err != nil {
		log.DefaultLogger.FromContext(ctx).Error("Datasource.CheckHealth: Health check failed internally", "error", err)
		return &backend.CheckHealthResult{
			Status:  backend.HealthStatusError,
			Message: fmt.Sprintf("Health check encountered an internal error: %s", err.Error()),
		}, nil
	}

	return healthResult, nil
}

func (d *Datasource) resourceMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /"+utils.AggregationsResourcePath, d.handleAggregations)
	mux.HandleFunc("POST /"+utils.ValidateResourcePath, d.handleValidate)
	return mux
}

func (d *Datasource) handleAggregations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, editor.AggregationOptions())
}

func (d *Datasource) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("error reading request body: %s", err)})
		return
	}
	q, err := handler.ParseQuery(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("error parsing query JSON: %s", err)})
		return
	}
	writeJSON(w, http.StatusOK, validation.ValidateQueryText(q.QueryText))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.DefaultLogger.Error("Failed to write resource response", "error", err)
	}
}
