// Package observability holds the process-wide logger, Prometheus metrics
// and OpenTelemetry tracer.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is replaced by ConfigureLogger; packages must read it at call time
// or after configuration.
var Logger *slog.Logger

type contextKey string

// Context keys whose values are copied onto every record logged with that context.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

var contextFields = []contextKey{RequestIDKey, UserIDKey, TraceIDKey}

type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, key := range contextFields {
		if v := ctx.Value(key); v != nil {
			r.AddAttrs(slog.Any(string(key), v))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

func init() {
	ConfigureLogger(os.Stdout, os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
}

// ConfigureLogger installs a JSON logger in production and a text logger
// elsewhere, writing to w at the named level.
func ConfigureLogger(w io.Writer, env, level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if e := strings.ToLower(env); e == "production" || e == "prod" {
		h = slog.NewJSONHandler(w, opts)
	}
	Logger = slog.New(contextHandler{h})
	slog.SetDefault(Logger)
}

// WithUserID tags ctx so records logged with it carry user_id.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// StoreLog logs row changes of one table.
type StoreLog string

// Changed records a successful mutation at debug level.
func (t StoreLog) Changed(ctx context.Context, op string, attrs ...slog.Attr) {
	Logger.LogAttrs(ctx, slog.LevelDebug, "store "+op,
		append([]slog.Attr{slog.String("table", string(t))}, attrs...)...)
}

// Failed records an unexpected store error.
func (t StoreLog) Failed(ctx context.Context, op string, err error) {
	Logger.LogAttrs(ctx, slog.LevelError, "store error",
		slog.String("table", string(t)),
		slog.String("op", op),
		slog.String("error", err.Error()))
}

// LogBackground reports an error from work that has no caller to return it to,
// such as event fan-out after a response was sent.
func LogBackground(ctx context.Context, op string, err error, attrs ...slog.Attr) {
	Logger.LogAttrs(ctx, slog.LevelError, "background "+op+" failed",
		append([]slog.Attr{slog.String("error", err.Error())}, attrs...)...)
}
