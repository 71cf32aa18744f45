package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sprintflow/internal/api/dto"
	"github.com/spec-kit/sprintflow/internal/service"
	"github.com/spec-kit/sprintflow/internal/validation"
)

// ProjectsHandler exposes project endpoints.
type ProjectsHandler struct {
	projects  *service.ProjectService
	validator *validation.Validator
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projects *service.ProjectService, validator *validation.Validator) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, validator: validator}
}

// List handles GET /projects.
func (h *ProjectsHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	projects, err := h.projects.ListProjects(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"projects": dto.NewProjectResponses(projects)})
}

// Create handles POST /projects.
func (h *ProjectsHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.CreateProjectRequest
	if err := bindBody(c, h.validator, &req); err != nil {
		return err
	}
	project, err := h.projects.CreateProject(c.UserContext(), userID, service.ProjectCreateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"project": dto.NewProjectResponse(project)})
}

// Get handles GET /projects/:id.
func (h *ProjectsHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	project, err := h.projects.GetProject(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"project": dto.NewProjectResponse(project)})
}

// Delete handles DELETE /projects/:id.
func (h *ProjectsHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.projects.DeleteProject(c.UserContext(), userID, c.Params("id")); err != nil {
		return err
	}
	return success(c)
}

// AddMember handles POST /projects/:id/members.
func (h *ProjectsHandler) AddMember(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.AddMemberRequest
	if err := bindBody(c, h.validator, &req); err != nil {
		return err
	}
	project, err := h.projects.AddMember(c.UserContext(), userID, c.Params("id"), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"project": dto.NewProjectResponse(project)})
}
