package handlers

import (
	"errors"

	"github.com/anismama/backend/internal/providers"
	"github.com/gofiber/fiber/v2"
)

// upstreamError maps provider failures onto HTTP status codes. An
// unreachable or unusable source is the upstream's fault, not ours.
func upstreamError(c *fiber.Ctx, err error) error {
	if errors.Is(err, providers.ErrUpstreamUnavailable) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "upstream source unavailable"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
}
