package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestSyncMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	metrics, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	ctx := context.Background()
	metrics.RecordJobDuration(ctx, "create-nodes", time.Second, true)
	metrics.RecordNodes(ctx, "create-nodes", OutcomeCreated, 1)
	metrics.RecordMessage(ctx, "create-nodes", "handled")
}

func TestSyncMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewSyncMetrics(provider)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordJobDuration(ctx, "update-nodes", 1500*time.Millisecond, false)
	metrics.RecordNodes(ctx, "update-nodes", OutcomeUpdated, 4)
	metrics.RecordNodes(ctx, "update-nodes", OutcomeDeleted, 0)
	metrics.RecordMessage(ctx, "update-nodes", "handled")

	got := collect(t, reader)

	hist, ok := got["nodesync_job_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	nodes, ok := got["nodesync_nodes_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, nodes.DataPoints, 1, "zero counts are not recorded")
	assert.Equal(t, int64(4), nodes.DataPoints[0].Value)

	messages, ok := got["nodesync_messages_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), messages.DataPoints[0].Value)
}

func TestHTTPMiddlewares(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	httpMetrics, err := NewHTTPMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	r := chi.NewRouter()
	r.Use(TracingMiddleware(tp))
	r.Use(httpMetrics.Middleware)
	r.Get("/v1/jobs/{jobUUID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /v1/jobs/{jobUUID}", spans[0].Name())

	got := collect(t, reader)
	total, ok := got["nodesync_http_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1)
	route, _ := total.DataPoints[0].Attributes.Value("route")
	assert.Equal(t, "/v1/jobs/{jobUUID}", route.AsString())
}

func TestHTTPMiddlewares_NilPassThrough(t *testing.T) {
	t.Parallel()

	var m *HTTPMetrics
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	TracingMiddleware(nil)(m.Middleware(handler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
