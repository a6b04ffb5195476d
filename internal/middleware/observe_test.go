package middleware

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"leconn/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingAndAccessLog(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prevTracer := observability.Tracer
	observability.Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)).Tracer("test")
	t.Cleanup(func() { observability.Tracer = prevTracer })

	var logs bytes.Buffer
	observability.ConfigureLogger(&logs, "production", "info")
	t.Cleanup(func() { observability.ConfigureLogger(&logs, "test", "info") })

	app := fiber.New()
	app.Use(requestid.New(), RequestContext(), Tracing(), AccessLog())
	app.Get("/posts/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "0" {
			return fiber.NewError(fiber.StatusNotFound, "missing")
		}
		return c.SendString("ok")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusBadGateway)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/posts/7", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	traceID := resp.Header.Get("X-Trace-ID")
	assert.Len(t, traceID, 32)

	resp, err = app.Test(httptest.NewRequest("GET", "/posts/0", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	_, err = app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)

	spans := rec.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "GET /posts/:id", spans[0].Name())
	assert.Equal(t, traceID, spans[0].SpanContext().TraceID().String())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, codes.Error, spans[2].Status().Code)

	out := logs.String()
	assert.Contains(t, out, `"trace_id":"`+traceID+`"`)
	assert.Contains(t, out, `"request_id":`)
	assert.Contains(t, out, `"level":"WARN","msg":"http request","method":"GET","path":"/posts/0","status":404`)
	assert.Contains(t, out, `"level":"ERROR","msg":"http request","method":"GET","path":"/boom","status":502`)
}
