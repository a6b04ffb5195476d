package server

import (
	"errors"
	"strconv"

	"leconn/internal/middleware"
	"leconn/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that a helper already committed the response.
// Handlers return nil when they see it.
var errResponseWritten = errors.New("response already written")

// respondError renders err with the status its AppError code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}

// parseID extracts a route parameter as a positive uint. On failure it writes
// a 400 response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseOptionalID reads a positive integer query parameter. An absent
// parameter yields nil.
func parseOptionalID(c *fiber.Ctx, key string) (*uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+key))
		return nil, errResponseWritten
	}
	id := uint(v)
	return &id, nil
}

// parseLimit reads ?limit=. Absent means the feed default; present values
// must lie in 1..MaxFeedLimit.
func parseLimit(c *fiber.Ctx) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return models.DefaultFeedLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > models.MaxFeedLimit {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("limit must be between 1 and 100"))
		return 0, errResponseWritten
	}
	return limit, nil
}

// currentUserID returns the caller set by the auth middleware.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := middleware.UserID(c)
	return id
}

// bindJSON parses the request body into dest, answering 400 and returning
// errResponseWritten when it cannot.
func bindJSON(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = respondError(c, models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// bindOptionalJSON is bindJSON for endpoints where the body may be omitted;
// an empty body leaves dest untouched.
func bindOptionalJSON(c *fiber.Ctx, dest any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return bindJSON(c, dest)
}
