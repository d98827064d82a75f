package handlers

import (
	"github.com/anismama/backend/internal/providers"
	"github.com/gofiber/fiber/v2"
)

type ProvidersHandler struct {
	registry *providers.Registry
}

func NewProvidersHandler(registry *providers.Registry) *ProvidersHandler {
	return &ProvidersHandler{registry: registry}
}

func (h *ProvidersHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"items": h.registry.List()})
}
