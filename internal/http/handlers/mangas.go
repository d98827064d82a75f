package handlers

import (
	"github.com/anismama/backend/internal/catalogue"
	"github.com/anismama/backend/internal/providers"
	"github.com/anismama/backend/internal/recommend"
	"github.com/gofiber/fiber/v2"
)

type MangasHandler struct {
	registry  *providers.Registry
	catalogue *catalogue.Service
}

func NewMangasHandler(registry *providers.Registry, catalogueService *catalogue.Service) *MangasHandler {
	return &MangasHandler{registry: registry, catalogue: catalogueService}
}

func (h *MangasHandler) resolveProvider(c *fiber.Ctx) (providers.Provider, error) {
	key := c.Query("provider")
	if key == "" {
		return h.registry.Default(), nil
	}
	provider, ok := h.registry.Lookup(key)
	if !ok {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "unknown provider " + key})
	}
	return provider, nil
}

// Get returns the info and chapter facets for one manga. Facets can be
// selected with the info/chapters query flags; both default to on.
func (h *MangasHandler) Get(c *fiber.Ctx) error {
	provider, err := h.resolveProvider(c)
	if provider == nil {
		return err
	}

	opts := providers.GetOptions{
		Info:     c.QueryBool("info", true),
		Chapters: c.QueryBool("chapters", true),
	}
	if !opts.Info && !opts.Chapters {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "at least one facet must be requested"})
	}

	manga, err := provider.GetManga(c.Context(), c.Params("id"), opts)
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(manga)
}

func (h *MangasHandler) PageImageURL(c *fiber.Ctx) error {
	provider, err := h.resolveProvider(c)
	if provider == nil {
		return err
	}

	chapter, err := c.ParamsInt("chapter")
	if err != nil || chapter <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "chapter must be a positive integer"})
	}
	page, err := c.ParamsInt("page")
	if err != nil || page <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "page must be a positive integer"})
	}

	return c.JSON(fiber.Map{"url": provider.PageImageURL(c.Params("id"), chapter, page)})
}

// Similar ranks the catalogue by tag overlap with the given manga and
// returns the top entries, the manga itself excluded. Tags come from the
// catalogue card when present, from the detail page otherwise.
func (h *MangasHandler) Similar(c *fiber.Ctx) error {
	id := c.Params("id")

	entries, err := h.catalogue.All(c.Context())
	if err != nil {
		return upstreamError(c, err)
	}

	var tags []string
	for _, entry := range entries {
		if entry.ID == id {
			tags = entry.Tags
			break
		}
	}
	if len(tags) == 0 {
		provider, err := h.resolveProvider(c)
		if provider == nil {
			return err
		}
		manga, err := provider.GetManga(c.Context(), id, providers.GetOptions{Info: true})
		if err != nil {
			return upstreamError(c, err)
		}
		if manga.Info != nil {
			tags = manga.Info.Tags
		}
	}

	candidates := make([]recommend.Candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.ID == id {
			continue
		}
		candidates = append(candidates, recommend.Candidate{ID: entry.ID, Name: entry.Title, Tags: entry.Tags})
	}

	ranked := recommend.RankByTags(candidates, tags)
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	return c.JSON(fiber.Map{"items": ranked})
}
