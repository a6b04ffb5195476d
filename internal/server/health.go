package server

import (
	"context"
	"time"

	"leconn/internal/database"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck answers GET /api/ with a plain OK.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// LivenessCheck reports that the process is serving.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now()})
}

// probe runs check and reports healthy or unhealthy.
func probe(ctx context.Context, check func(context.Context) error) string {
	if err := check(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

// ReadinessCheck probes the database and Redis. A server configured
// without Redis is "degraded" but still ready; a failing dependency makes
// it unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbState := probe(ctx, func(ctx context.Context) error { return database.Ping(ctx, s.db) })
	redisState := "unavailable"
	if s.redis != nil {
		redisState = probe(ctx, func(ctx context.Context) error { return s.redis.Ping(ctx).Err() })
	}

	code, overall := fiber.StatusOK, "healthy"
	if dbState == "unhealthy" || redisState == "unhealthy" {
		code, overall = fiber.StatusServiceUnavailable, "unhealthy"
	} else if redisState == "unavailable" {
		overall = "degraded"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":                overall,
		"checks":                fiber.Map{"database": dbState, "redis": redisState},
		"websocket_connections": s.hub.ConnectionCount(),
		"time":                  time.Now(),
	})
}
