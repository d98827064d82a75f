package handlers

import (
	"database/sql"
	"time"

	"github.com/anismama/backend/internal/auth"
	"github.com/anismama/backend/internal/library"
	"github.com/gofiber/fiber/v2"
)

type LibraryHandler struct {
	store *library.Store
}

func NewLibraryHandler(db *sql.DB) *LibraryHandler {
	return &LibraryHandler{store: library.NewStore(db)}
}

type actionRequest struct {
	Action string `json:"action"`

	// setSettings
	Settings *library.Settings `json:"settings"`

	// setProgress
	Chapter    int `json:"chapter"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`

	// editHistory
	Progress map[int]library.ChapterProgress `json:"progress"`

	// setRating
	Rating *int `json:"rating"`
}

// Actions is the single mutating endpoint for a user's per-manga state.
// The payload carries an action discriminator; malformed payloads are
// rejected before any write happens.
func (h *LibraryHandler) Actions(c *fiber.Ctx) error {
	claims := auth.ClaimsFromContext(c)
	mangaID := c.Params("id")

	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid json body"})
	}

	switch req.Action {
	case "setSettings":
		return h.setSettings(c, claims.UserID, mangaID, req)
	case "setProgress":
		return h.setProgress(c, claims.UserID, mangaID, req)
	case "finishManga":
		return h.finishManga(c, claims.UserID, mangaID, req)
	case "resetProgression":
		return h.resetProgression(c, claims.UserID, mangaID)
	case "editHistory":
		return h.editHistory(c, claims.UserID, mangaID, req)
	case "setRating":
		return h.setRating(c, claims.UserID, mangaID, req)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "unknown action"})
	}
}

func (h *LibraryHandler) setSettings(c *fiber.Ctx, userID string, mangaID string, req actionRequest) error {
	if req.Settings == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "settings object is required"})
	}

	if _, err := h.store.GetOrCreate(userID, mangaID, c.Query("provider")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load manga state"})
	}
	if err := h.store.UpdateSettings(userID, mangaID, *req.Settings); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to update settings"})
	}

	state, err := h.store.Get(userID, mangaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load manga state"})
	}
	return c.JSON(state)
}

func (h *LibraryHandler) setProgress(c *fiber.Ctx, userID string, mangaID string, req actionRequest) error {
	if req.Chapter <= 0 || req.Page < 0 || req.TotalPages <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "chapter and totalPages must be positive, page non-negative"})
	}

	state, err := h.store.GetOrCreate(userID, mangaID, c.Query("provider"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load manga state"})
	}

	next := library.RecordPage(*state, req.Chapter, req.Page, req.TotalPages, time.Now().UTC())
	if err := h.store.SaveProgress(&next); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to save progress"})
	}
	return c.JSON(next)
}

func (h *LibraryHandler) finishManga(c *fiber.Ctx, userID string, mangaID string, req actionRequest) error {
	if req.Chapter <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "chapter must be positive"})
	}

	state, err := h.store.GetOrCreate(userID, mangaID, c.Query("provider"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load manga state"})
	}
	// The clamp has nothing to act on for an unread chapter; refusing
	// here keeps a finished manga consistent with its progress map.
	if _, ok := state.Progress[req.Chapter]; !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "chapter has no recorded progress"})
	}

	next := library.Finish(*state, req.Chapter, time.Now().UTC())
	if !state.Finished {
		if _, err := h.store.RecordFinish(&next); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to record finish"})
		}
	}

	saved, err := h.store.Get(userID, mangaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load manga state"})
	}
	return c.JSON(saved)
}

func (h *LibraryHandler) resetProgression(c *fiber.Ctx, userID string, mangaID string) error {
	state, err := h.store.GetOrCreate(userID, mangaID, c.Query("provider"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load manga state"})
	}

	next := library.Reset(*state)
	if err := h.store.SaveProgress(&next); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to reset progression"})
	}
	return c.JSON(next)
}

func (h *LibraryHandler) editHistory(c *fiber.Ctx, userID string, mangaID string, req actionRequest) error {
	if req.Progress == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "progress object is required"})
	}

	state, err := h.store.GetOrCreate(userID, mangaID, c.Query("provider"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load manga state"})
	}

	next, err := library.ReplaceProgress(*state, req.Progress)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if err := h.store.SaveProgress(&next); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to save history"})
	}
	return c.JSON(next)
}

func (h *LibraryHandler) setRating(c *fiber.Ctx, userID string, mangaID string, req actionRequest) error {
	if req.Rating == nil || *req.Rating < 0 || *req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "rating must be between 0 and 5"})
	}

	if _, err := h.store.GetOrCreate(userID, mangaID, c.Query("provider")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load manga state"})
	}
	if err := h.store.SetRating(userID, mangaID, *req.Rating); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to set rating"})
	}

	state, err := h.store.Get(userID, mangaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load manga state"})
	}
	return c.JSON(state)
}

// LastChapter resolves where the reader should resume. Chapter 1 is the
// fallback when there is no progress at all.
func (h *LibraryHandler) LastChapter(c *fiber.Ctx) error {
	claims := auth.ClaimsFromContext(c)

	state, err := h.store.Get(claims.UserID, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load manga state"})
	}

	latestChapter := 1
	if state != nil {
		if latest, ok := library.LatestChapter(state.Progress); ok {
			latestChapter = latest
		}
	}
	return c.JSON(fiber.Map{"latestChapter": latestChapter})
}

func (h *LibraryHandler) List(c *fiber.Ctx) error {
	claims := auth.ClaimsFromContext(c)

	tab := c.Query("tab", "all")
	states, err := h.store.List(claims.UserID, tab)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"items": states})
}
