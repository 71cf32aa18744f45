package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sprintflow/internal/api/http/handlers"
	"github.com/spec-kit/sprintflow/internal/auth"
	"github.com/spec-kit/sprintflow/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Projects       *handlers.ProjectsHandler
	Issues         *handlers.IssuesHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	authGroup := app.Group("/auth", cfg.AuthMiddleware.Handle)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/me", auth.RequireUser(), cfg.Auth.Me)

	projects := app.Group("/projects", cfg.AuthMiddleware.Handle, auth.RequireUser())
	projects.Get("/", cfg.Projects.List)
	projects.Post("/", cfg.Projects.Create)
	projects.Get("/:id", cfg.Projects.Get)
	projects.Delete("/:id", cfg.Projects.Delete)
	projects.Post("/:id/members", cfg.Projects.AddMember)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle, auth.RequireUser())
	issues.Get("/", cfg.Issues.List)
	issues.Post("/", cfg.Issues.Create)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Patch("/:id", cfg.Issues.Update)
	issues.Delete("/:id", cfg.Issues.Delete)
}
