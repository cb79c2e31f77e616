package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-activity/internal/domain"
	apperrors "github.com/spec-kit/ticket-activity/pkg/util/errorutil"
)

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("missing credentials")
		}
		if len(allowed) > 0 && !principal.HasRole(allowed...) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("missing credentials")
		}
		return c.Next()
	}
}
