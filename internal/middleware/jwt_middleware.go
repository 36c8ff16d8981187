package middleware

import (
	"errors"
	"log"
	"strings"

	"edumarket/internal/models"
	"edumarket/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthRequired is a Fiber middleware that accepts only a valid JWT whose
// user is still the current session.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		session, err := authService.Authenticate(tokenString)
		if err != nil {
			log.Printf("JWT authentication failed: %v", err)
			message := "Invalid or expired token"
			if errors.Is(err, services.ErrSessionEnded) {
				message = "Session has ended, please log in again"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": message,
				"error":   err.Error(),
			})
		}

		storeSession(c, session)
		return c.Next()
	}
}

// IdentifyUser stores the caller's session when a valid token is present but
// lets anonymous requests through.
func IdentifyUser(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearerToken(c.Get("Authorization")); ok {
			if session, err := authService.Authenticate(tokenString); err == nil {
				storeSession(c, session)
			}
		}
		return c.Next()
	}
}

func bearerToken(authHeader string) (string, bool) {
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func storeSession(c *fiber.Ctx, session *models.Session) {
	c.Locals("user_id", session.ID)
	c.Locals("name", session.Name)
	c.Locals("email", session.Email)
}
