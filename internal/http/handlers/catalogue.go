package handlers

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/anismama/backend/internal/auth"
	"github.com/anismama/backend/internal/catalogue"
	"github.com/anismama/backend/internal/library"
	"github.com/anismama/backend/internal/providers"
	"github.com/anismama/backend/internal/searchutil"
	"github.com/gofiber/fiber/v2"
)

type CatalogueHandler struct {
	service  *catalogue.Service
	registry *providers.Registry
	library  *library.Store
}

func NewCatalogueHandler(service *catalogue.Service, registry *providers.Registry, db *sql.DB) *CatalogueHandler {
	return &CatalogueHandler{
		service:  service,
		registry: registry,
		library:  library.NewStore(db),
	}
}

func (h *CatalogueHandler) List(c *fiber.Ctx) error {
	entries, err := h.service.All(c.Context())
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(fiber.Map{"items": entries})
}

// Search filters the cached catalogue so that search, recommendations
// and random all share one fetch path.
func (h *CatalogueHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "query parameter q is required"})
	}

	entries, err := h.service.All(c.Context())
	if err != nil {
		return upstreamError(c, err)
	}

	matched := make([]providers.CatalogueEntry, 0, 16)
	for _, entry := range entries {
		if searchutil.Matches(query, entry.Title, entry.AliasText) {
			matched = append(matched, entry)
		}
	}
	return c.JSON(fiber.Map{"items": matched})
}

// Random picks an entry the user has not already added to their library.
// Anonymous requests pick among the whole catalogue.
func (h *CatalogueHandler) Random(c *fiber.Ctx) error {
	var excludeIDs []string
	if claims := auth.ClaimsFromContext(c); claims != nil {
		ids, err := h.library.AllIDs(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load library"})
		}
		excludeIDs = ids
	}

	entry, err := h.service.Random(c.Context(), excludeIDs)
	if err != nil {
		if errors.Is(err, catalogue.ErrCatalogueEmpty) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "no eligible manga"})
		}
		return upstreamError(c, err)
	}
	return c.JSON(entry)
}
