package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/acepass/acepass/internal/admin"
	"github.com/acepass/acepass/internal/auth"
)

// AdminIDKey is the fiber local under which AdminAuth stores the admin id.
const AdminIDKey = "admin_id"

// AdminAuth validates admin bearer tokens and checks the account still exists.
func AdminAuth(tokens *auth.Service, repo admin.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		adminID, err := tokens.Verify(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		if _, err := repo.FindByID(c.UserContext(), adminID); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "admin not found")
		}

		c.Locals(AdminIDKey, adminID)
		return c.Next()
	}
}
