package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/snowsync/internal/domain"
)

// RequireSystem ensures the caller speaks for one of the allowed systems.
// When authentication is disabled no principal exists and the check passes.
func RequireSystem(m *AuthMiddleware, allowed ...domain.TicketSystem) fiber.Handler {
	allowedSet := make(map[domain.TicketSystem]struct{}, len(allowed))
	for _, system := range allowed {
		allowedSet[system] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if !m.Enabled() {
			return c.Next()
		}
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if _, exists := allowedSet[principal.System]; !exists {
			return fiber.NewError(http.StatusForbidden, "calling system not allowed on this route")
		}
		return c.Next()
	}
}
