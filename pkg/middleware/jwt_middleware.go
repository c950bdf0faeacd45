package middleware

import (
	"context"
	"strings"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/gilanghuda/weekly-report-backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const identityKey = "identity"

// UserLoader resolves the account behind a verified token so that role and
// department changes take effect without re-login.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// JWTProtected verifies the bearer token and stores the caller's Identity
// in the request locals. The websocket upgrade passes the token as ?token=.
func JWTProtected(tokens *utils.JWTManager, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tokenString string

		authHeader := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Authorization bearer token",
			})
		}

		userID, err := tokens.UserIDFromToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		user, err := users.GetUserByID(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		c.Locals(identityKey, models.NewIdentity(user))
		return c.Next()
	}
}

// CurrentIdentity returns the caller set by JWTProtected, or an
// unauthenticated zero Identity.
func CurrentIdentity(c *fiber.Ctx) models.Identity {
	if id, ok := c.Locals(identityKey).(models.Identity); ok {
		return id
	}
	return models.Identity{}
}

// SetIdentity is used by tests and by handlers that authenticate outside JWTProtected.
func SetIdentity(c *fiber.Ctx, identity models.Identity) {
	c.Locals(identityKey, identity)
}

func ReviewerOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentIdentity(c).Reviewer() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Reviewer access required"})
		}
		return c.Next()
	}
}

func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentIdentity(c).Admin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
		}
		return c.Next()
	}
}
