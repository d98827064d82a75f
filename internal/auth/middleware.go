package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const localsClaimsKey = "auth_claims"

// RequireUser rejects requests without a valid bearer token. Missing or
// invalid credentials are a 401 rejection, never a silent pass-through.
func RequireUser(tokens TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := parseBearer(c, tokens)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
		}
		c.Locals(localsClaimsKey, claims)
		return c.Next()
	}
}

// OptionalUser attaches claims when a valid token is present and lets
// anonymous requests through untouched.
func OptionalUser(tokens TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, ok := parseBearer(c, tokens); ok {
			c.Locals(localsClaimsKey, claims)
		}
		return c.Next()
	}
}

func parseBearer(c *fiber.Ctx, tokens TokenService) (*Claims, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, false
	}

	claims, err := tokens.Parse(strings.TrimSpace(header[len("Bearer "):]))
	if err != nil {
		return nil, false
	}
	return claims, true
}

// ClaimsFromContext returns the claims set by the middleware, or nil for
// an anonymous request.
func ClaimsFromContext(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(localsClaimsKey).(*Claims)
	return claims
}
