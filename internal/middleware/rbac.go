package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/utils"
)

// RequireRole ensures the authenticated user holds one of the allowed roles.
// Roles are members of the closed models.Role set; a request without a
// parsed role is rejected.
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		if role.Valid() {
			allowed[role] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role := RoleFromContext(c)
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// RoleFromContext returns the role stored by the JWT middleware, or the
// empty role when none was set.
func RoleFromContext(c *fiber.Ctx) models.Role {
	if value := c.Locals("user_role"); value != nil {
		if role, ok := value.(models.Role); ok {
			return role
		}
	}
	return ""
}
