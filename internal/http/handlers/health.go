package handlers

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports liveness for the reader API. The library store
// is the only hard dependency, so a failed ping marks the service degraded.
type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"
	store := "up"
	code := fiber.StatusOK
	if err := h.db.Ping(); err != nil {
		status = "degraded"
		store = "down"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"service": "manga-reader-api",
		"status":  status,
		"db":      store,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
