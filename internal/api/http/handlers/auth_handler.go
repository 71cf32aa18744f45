package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sprintflow/internal/api/dto"
	"github.com/spec-kit/sprintflow/internal/auth"
	"github.com/spec-kit/sprintflow/internal/service"
	"github.com/spec-kit/sprintflow/internal/validation"
	apperrors "github.com/spec-kit/sprintflow/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	auth      *service.AuthService
	validator *validation.Validator
	cookie    auth.CookieConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, validator *validation.Validator, cookie auth.CookieConfig) *AuthHandler {
	return &AuthHandler{auth: authService, validator: validator, cookie: cookie}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := bindBody(c, h.validator, &req); err != nil {
		return err
	}

	result, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	auth.SetSessionCookie(c, h.cookie, result.Token)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"user": dto.NewUserResponse(result.User)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := bindBody(c, h.validator, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	auth.SetSessionCookie(c, h.cookie, result.Token)
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(result.User)})
}

// Logout handles POST /auth/logout. It always succeeds and clears the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), c.Cookies(h.cookie.Name)); err != nil {
		return err
	}
	auth.ClearSessionCookie(c, h.cookie)
	return success(c)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(principal.User)})
}
