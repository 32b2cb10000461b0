package telemetry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func reset(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { store(nil) })
}

func TestInit_Disabled(t *testing.T) {
	reset(t)

	require.NoError(t, Init(context.Background(), nil))
	s := load()
	require.NotNil(t, s)
	assert.NotNil(t, s.tracer)
	assert.NotNil(t, s.meter)
	assert.Empty(t, s.shutdowns)
	assert.NoError(t, Shutdown(context.Background()))
}

func TestInit_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping collector-backed test in short mode")
	}
	reset(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := &Config{
		Enabled:        true,
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		CollectorAddr:  "localhost:4317",
	}
	require.NoError(t, Init(ctx, cfg))
	assert.Len(t, load().shutdowns, 2)
	assert.Equal(t, 15*time.Second, cfg.MetricInterval)
	assert.Equal(t, 1.0, cfg.SampleRatio)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	_ = Shutdown(shutdownCtx)
}

func TestShutdown_BeforeInit(t *testing.T) {
	reset(t)
	store(nil)
	assert.NoError(t, Shutdown(context.Background()))
}

func TestShutdown_JoinsErrors(t *testing.T) {
	reset(t)
	store(&state{shutdowns: []func(context.Context) error{
		func(context.Context) error { return errors.New("traces") },
		func(context.Context) error { return nil },
		func(context.Context) error { return errors.New("metrics") },
	}})

	err := Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "traces")
	assert.Contains(t, err.Error(), "metrics")
}

func TestStartSpan_BeforeInit(t *testing.T) {
	reset(t)
	store(nil)
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, "prize.execute")
	assert.Equal(t, ctx, newCtx)
	assert.NotNil(t, span)
	assert.Empty(t, TraceID(newCtx))
	assert.NotNil(t, Meter())
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(-1).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestRecordError(t *testing.T) {
	reset(t)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	store(&state{tracer: provider.Tracer("test")})

	ctx, span := StartSpan(context.Background(), "webhook.post")
	assert.NotEmpty(t, TraceID(ctx))
	RecordError(span, nil)
	RecordError(span, errors.New("connection refused"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, otelcodes.Error, spans[0].Status().Code)
	assert.Equal(t, "connection refused", spans[0].Status().Description)
	assert.Len(t, spans[0].Events(), 1)
}

func TestInjectHeaders(t *testing.T) {
	reset(t)
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	provider := sdktrace.NewTracerProvider()
	store(&state{tracer: provider.Tracer("test")})

	ctx, span := StartSpan(context.Background(), "webhook.post")
	defer span.End()

	header := http.Header{}
	InjectHeaders(ctx, propagation.HeaderCarrier(header))
	assert.Contains(t, header.Get("Traceparent"), TraceID(ctx))
}

func TestOutcomes(t *testing.T) {
	reset(t)
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	store(&state{meter: provider.Meter("test")})
	ctx := context.Background()

	outcomes, err := NewOutcomes("prize.strategy", "outcomes")
	require.NoError(t, err)
	outcomes.Record(ctx, time.Now().Add(-50*time.Millisecond), PrizeStrategyAttr("balance_credit"), PrizeStatusAttr("fulfilled"))
	outcomes.Record(ctx, time.Now(), PrizeStrategyAttr("balance_credit"), PrizeStatusAttr("fulfilled"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	sum, ok := byName["prize.strategy.count"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	hist, ok := byName["prize.strategy.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.GreaterOrEqual(t, hist.DataPoints[0].Sum, 0.05)

	var nilOutcomes *Outcomes
	assert.NotPanics(t, func() { nilOutcomes.Record(ctx, time.Now()) })
}

func TestAttributeHelpers(t *testing.T) {
	tests := []struct {
		name     string
		got      attribute.KeyValue
		expected attribute.KeyValue
	}{
		{"CompanyIDAttr", CompanyIDAttr("c1"), attribute.String("company.id", "c1")},
		{"MemberIDAttr", MemberIDAttr("m1"), attribute.String("member.id", "m1")},
		{"PrizeTypeAttr", PrizeTypeAttr("points"), attribute.String("prize.type", "points")},
		{"PrizeStrategyAttr", PrizeStrategyAttr("external_hook"), attribute.String("prize.strategy", "external_hook")},
		{"PrizeStatusAttr", PrizeStatusAttr("pending"), attribute.String("prize.status", "pending")},
		{"StatusCodeAttr", StatusCodeAttr(502), attribute.Int("http.response.status_code", 502)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}
