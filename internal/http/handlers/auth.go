package handlers

import (
	"database/sql"
	"strings"

	"github.com/anismama/backend/internal/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	store  *auth.Store
	tokens auth.TokenService
}

func NewAuthHandler(db *sql.DB, tokens auth.TokenService) *AuthHandler {
	return &AuthHandler{store: auth.NewStore(db), tokens: tokens}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid json body"})
	}

	username := strings.TrimSpace(req.Username)
	if len(username) < 3 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "username must be at least 3 characters"})
	}
	if len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "password must be at least 8 characters"})
	}

	existing, err := h.store.GetByUsername(username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to check username"})
	}
	if existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "username already taken"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to hash password"})
	}

	user := auth.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := h.store.Create(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to create user"})
	}

	token, expiresAt, err := h.tokens.Sign(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to issue token"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      fiber.Map{"id": user.ID, "username": user.Username},
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid json body"})
	}

	user, err := h.store.GetByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load user"})
	}
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid credentials"})
	}

	token, expiresAt, err := h.tokens.Sign(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to issue token"})
	}

	return c.JSON(fiber.Map{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      fiber.Map{"id": user.ID, "username": user.Username},
	})
}
