package handlers

import (
	"database/sql"

	"github.com/anismama/backend/internal/auth"
	"github.com/anismama/backend/internal/catalogue"
	"github.com/anismama/backend/internal/library"
	"github.com/anismama/backend/internal/recommend"
	"github.com/gofiber/fiber/v2"
)

type RecommendationsHandler struct {
	store     *library.Store
	catalogue *catalogue.Service
}

func NewRecommendationsHandler(db *sql.DB, catalogueService *catalogue.Service) *RecommendationsHandler {
	return &RecommendationsHandler{store: library.NewStore(db), catalogue: catalogueService}
}

// Recommend scores the catalogue against the user's whole history. Tags
// for both history and candidates come from the catalogue cards; a manga
// that no longer appears in the catalogue contributes nothing.
func (h *RecommendationsHandler) Recommend(c *fiber.Ctx) error {
	claims := auth.ClaimsFromContext(c)

	states, err := h.store.List(claims.UserID, "all")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load library"})
	}
	owned, err := h.store.OwnedIDs(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load library"})
	}

	entries, err := h.catalogue.All(c.Context())
	if err != nil {
		return upstreamError(c, err)
	}

	tagsByID := make(map[string][]string, len(entries))
	for _, entry := range entries {
		tagsByID[entry.ID] = entry.Tags
	}

	history := make([]recommend.HistoryItem, 0, len(states))
	for _, state := range states {
		history = append(history, recommend.HistoryItem{
			Tags:      tagsByID[state.MangaID],
			Favorited: state.IsFavorited,
			Crushed:   state.IsCrushed,
			Finished:  state.Finished,
			Rating:    state.Rating,
		})
	}

	candidates := make([]recommend.Candidate, 0, len(entries))
	for _, entry := range entries {
		candidates = append(candidates, recommend.Candidate{ID: entry.ID, Name: entry.Title, Tags: entry.Tags})
	}

	ranked := recommend.Rank(history, candidates, func(id string) bool {
		_, ok := owned[id]
		return ok
	})
	return c.JSON(fiber.Map{"items": ranked})
}
