package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"leconn/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// RequestContext copies the request id set by fiber's requestid middleware
// onto the request context.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			c.SetUserContext(context.WithValue(c.UserContext(), observability.RequestIDKey, rid))
		}
		return c.Next()
	}
}

// AccessLog writes one record per request once the handler chain returns.
// Server errors log at error level, client errors at warn.
func AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		level := slog.LevelInfo
		switch {
		case status >= fiber.StatusInternalServerError:
			level = slog.LevelError
		case status >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		observability.Logger.LogAttrs(c.UserContext(), level, "http request", attrs...)
		return err
	}
}
