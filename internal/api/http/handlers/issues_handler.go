package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sprintflow/internal/api/dto"
	"github.com/spec-kit/sprintflow/internal/domain"
	"github.com/spec-kit/sprintflow/internal/service"
	"github.com/spec-kit/sprintflow/internal/validation"
	apperrors "github.com/spec-kit/sprintflow/pkg/util/errorutil"
)

// IssuesHandler exposes issue endpoints.
type IssuesHandler struct {
	issues    *service.IssueService
	validator *validation.Validator
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issues *service.IssueService, validator *validation.Validator) *IssuesHandler {
	return &IssuesHandler{issues: issues, validator: validator}
}

// List handles GET /issues?projectId=.
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	issues, err := h.issues.ListIssues(c.UserContext(), userID, c.Query("projectId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"issues": dto.NewIssueResponses(issues)})
}

// Create handles POST /issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.CreateIssueRequest
	if err := bindBody(c, h.validator, &req); err != nil {
		return err
	}

	input := service.IssueCreateInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.IssuePriority(req.Priority),
	}
	if req.AssigneeID != "" {
		input.AssigneeID = &req.AssigneeID
	}
	if req.DueDate != "" {
		due, err := parseDueDate(req.DueDate)
		if err != nil {
			return err
		}
		input.DueDate = &due
	}

	issue, err := h.issues.CreateIssue(c.UserContext(), userID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"issue": dto.NewIssueResponse(issue)})
}

// Get handles GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	issue, err := h.issues.GetIssue(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"issue": dto.NewIssueResponse(issue)})
}

// Update handles PATCH /issues/:id.
func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateIssueRequest
	if err := bindBody(c, h.validator, &req); err != nil {
		return err
	}

	input := service.IssueUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeSet: req.AssigneeID.Set,
		DueDateSet:  req.DueDate.Set,
	}
	if req.Status != nil {
		status := domain.IssueStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := domain.IssuePriority(*req.Priority)
		input.Priority = &priority
	}
	if req.AssigneeID.Present() && req.AssigneeID.Value != "" {
		assignee := req.AssigneeID.Value
		input.AssigneeID = &assignee
	}
	if req.DueDate.Present() && req.DueDate.Value != "" {
		due, err := parseDueDate(req.DueDate.Value)
		if err != nil {
			return err
		}
		input.DueDate = &due
	}

	issue, err := h.issues.UpdateIssue(c.UserContext(), userID, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"issue": dto.NewIssueResponse(issue)})
}

// Delete handles DELETE /issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.issues.DeleteIssue(c.UserContext(), userID, c.Params("id")); err != nil {
		return err
	}
	return success(c)
}

func parseDueDate(value string) (time.Time, error) {
	due, err := validation.ParseDate(value)
	if err != nil {
		return time.Time{}, apperrors.NewFieldValidationError("dueDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	return due, nil
}
