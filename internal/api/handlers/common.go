package handlers

import (
	"strconv"

	"foodgram/domain"
	"foodgram/internal/api/presenters"

	"github.com/gofiber/fiber/v2"
)

// MethodNotAllowed answers write methods on read-only resources.
func MethodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, "GET, HEAD, OPTIONS")
	return presenters.ErrorResponse(c, fiber.StatusMethodNotAllowed, domain.MessageMethodNotAllowed, nil)
}

// paramID parses the :id route parameter. Anything that is not a positive
// integer cannot name a row.
func paramID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func notFound(c *fiber.Ctx) error {
	return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageNotFound, nil)
}

func queryFlag(c *fiber.Ctx, key string) bool {
	switch c.Query(key) {
	case "1", "true", "True":
		return true
	default:
		return false
	}
}
