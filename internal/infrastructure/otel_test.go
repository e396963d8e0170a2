package infrastructure

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestInitializeOTel_Disabled(t *testing.T) {
	logger := NewJSONLogger(io.Discard, "error")

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
	}, logger)
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	logger := NewJSONLogger(io.Discard, "error")

	_, err := InitializeOTel(&OTelConfig{TraceExporter: "jaeger", MetricExporter: "none"}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")

	_, err = InitializeOTel(&OTelConfig{TraceExporter: "none", MetricExporter: "statsd"}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metric exporter")
}

func TestCreateBusinessMetrics(t *testing.T) {
	m, err := CreateBusinessMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.LoaderFilesTotal)
	assert.NotNil(t, m.ForecastDuration)
	assert.NotNil(t, m.WebSocketConnections)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordFileLoad(ctx, m, "BLS", 10, 2, time.Millisecond, nil)
		RecordFileLoad(ctx, m, "ILO", 0, 0, time.Millisecond, errors.New("bad"))
		RecordForecast(ctx, m, 5, time.Millisecond, nil)
		RecordStoreLoad(ctx, m, "replace")
	})
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordFileLoad(ctx, nil, "BLS", 1, 0, time.Second, nil)
		RecordForecast(ctx, nil, 1, time.Second, nil)
		RecordStoreLoad(ctx, nil, "merge")
	})
}
