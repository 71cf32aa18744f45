package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sprintflow/internal/domain"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User    *domain.User
	Session *domain.Session
	Token   string
}

// SessionResolver turns a raw session token into the user it belongs to. It returns a nil user,
// without error, when the token does not describe a live session.
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (*domain.User, *domain.Session, error)
}

// AuthMiddleware reads the session cookie and loads principals.
type AuthMiddleware struct {
	resolver   SessionResolver
	cookieName string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver SessionResolver, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, cookieName: cookieName}
}

// Handle attaches the principal when the request carries a valid session. Requests without one
// continue anonymously; RequireUser decides whether that is acceptable.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := c.Cookies(m.cookieName)
	if token == "" {
		return c.Next()
	}

	user, session, err := m.resolver.CurrentUser(c.UserContext(), token)
	if err != nil {
		return err
	}
	if user != nil {
		c.Locals(principalKey, &Principal{User: user, Session: session, Token: token})
	}
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal.User != nil
}
