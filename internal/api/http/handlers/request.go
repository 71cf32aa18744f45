package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sprintflow/internal/auth"
	"github.com/spec-kit/sprintflow/internal/validation"
	apperrors "github.com/spec-kit/sprintflow/pkg/util/errorutil"
)

type normalizer interface {
	Normalize()
}

// bindBody decodes, normalizes and validates a JSON request body.
func bindBody(c *fiber.Ctx, v *validation.Validator, req normalizer) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Normalize()
	return v.Struct(req)
}

func currentUserID(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized("Unauthorized")
	}
	return principal.User.ID, nil
}

func success(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}
