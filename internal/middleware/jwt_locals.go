package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gramv/onboardingsoftware/internal/authz"
	"github.com/gramv/onboardingsoftware/internal/models"
	"github.com/gramv/onboardingsoftware/internal/utils"
)

// AttachJWTLocals copies the verified claims into request locals so handlers
// never touch the raw token.
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Locals("user")
		if raw == nil {
			return fiber.ErrUnauthorized
		}

		token, ok := raw.(*jwt.Token)
		if !ok || token == nil {
			return fiber.ErrUnauthorized
		}

		claims, ok := token.Claims.(*utils.Claims)
		if !ok {
			return fiber.ErrUnauthorized
		}

		uid := strings.TrimSpace(claims.UserID)
		role := strings.ToLower(strings.TrimSpace(claims.Role))
		org := strings.TrimSpace(claims.OrganizationID)

		if uid == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals("userId", uid)
		c.Locals("role", role)
		c.Locals("orgId", org)

		return c.Next()
	}
}

// ActorFromLocals rebuilds the authorization actor for guard checks.
func ActorFromLocals(c *fiber.Ctx) (authz.Actor, error) {
	rawID, _ := c.Locals("userId").(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return authz.Actor{}, fiber.ErrUnauthorized
	}

	role, _ := c.Locals("role").(string)
	if role == "" {
		return authz.Actor{}, fiber.ErrUnauthorized
	}

	rawOrg, _ := c.Locals("orgId").(string)
	orgID, err := uuid.Parse(rawOrg)
	if err != nil {
		return authz.Actor{}, fiber.ErrUnauthorized
	}

	return authz.Actor{
		UserID:         userID,
		Role:           models.Role(role),
		OrganizationID: orgID,
	}, nil
}
