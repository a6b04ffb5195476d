package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() { Tracer = prev })
	return rec
}

func TestStoreSpan(t *testing.T) {
	rec := recordSpans(t)

	_, ok := StartStoreSpan(context.Background(), "likes", "Apply")
	FinishSpan(ok, nil)
	_, failed := StartStoreSpan(context.Background(), "reposts", "SetReposted")
	FinishSpan(failed, errors.New("lock timeout"))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "likes.Apply", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "reposts.SetReposted", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Events(), 1)
}

func TestTracingConfigSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", TracingConfig{SamplerRatio: 1}.sampler().Description())
	assert.Contains(t, TracingConfig{SamplerRatio: 0.25}.sampler().Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, TracingConfig{}.sampler().Description(), "AlwaysOffSampler")
}

func TestInitTracing(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "leconn-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = InitTracing(context.Background(), TracingConfig{ServiceName: "leconn-test", Enabled: true, Exporter: "zipkin"})
	assert.ErrorContains(t, err, "zipkin")
}
