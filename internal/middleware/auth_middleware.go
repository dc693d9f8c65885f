package middleware

import (
	"strings"

	"hlg-fitness/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID     = "user_id"
	localUsername   = "username"
	localName       = "user_name"
	localPrivileges = "user_privileges"
)

// Authenticator validates a raw token and returns the claims of a live session.
type Authenticator interface {
	Authenticate(token string) (*jwt.Claims, error)
}

// RequireAuth accepts "Authorization: Bearer <token>" or the session cookie and stores the user in Locals.
func RequireAuth(auth Authenticator, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookieName)
		if header := c.Get(fiber.HeaderAuthorization); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid authorization format. Use: Bearer <token>"})
			}
			token = strings.TrimSpace(parts[1])
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authenticated"})
		}

		claims, err := auth.Authenticate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localUsername, claims.Username)
		c.Locals(localName, claims.Name)
		c.Locals(localPrivileges, claims.Privileges)
		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return RequireAnyPrivilege(requiredPrivilege)
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(localPrivileges).([]string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "No privileges found"})
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Forbidden: requires " + strings.Join(requiredPrivileges, " or ") + " privilege",
		})
	}
}

// UserID returns the authenticated user's id, or 0 outside RequireAuth.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

// Username returns the authenticated username, "system" outside RequireAuth.
func Username(c *fiber.Ctx) string {
	if name, ok := c.Locals(localUsername).(string); ok && name != "" {
		return name
	}
	return "system"
}
