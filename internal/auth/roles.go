package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/sprintflow/pkg/util/errorutil"
)

// RequireUser rejects requests without an authenticated user.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("Unauthorized")
		}
		return c.Next()
	}
}
