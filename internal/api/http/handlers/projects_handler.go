package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtrack-service/internal/api/dto"
	"github.com/spec-kit/bugtrack-service/internal/domain"
	"github.com/spec-kit/bugtrack-service/internal/repository"
	"github.com/spec-kit/bugtrack-service/internal/service"
	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

// ProjectsHandler exposes project endpoints.
type ProjectsHandler struct {
	projects *service.ProjectService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projectService *service.ProjectService) *ProjectsHandler {
	return &ProjectsHandler{projects: projectService}
}

// ListProjects GET /projects (admin).
func (h *ProjectsHandler) ListProjects(c *fiber.Ctx) error {
	filter := repository.ProjectFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.ProjectStatus(statusStr)
		filter.Status = &status
	}
	if member := c.Query("member"); member != "" {
		filter.Member = &member
	}
	filter.Limit, filter.Offset = parsePagination(c)

	projects, total, err := h.projects.ListProjects(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, dto.NewProjectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": items, "total": total})
}

// ListAssigned GET /projects/my-projects.
func (h *ProjectsHandler) ListAssigned(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	projects, err := h.projects.ListAssigned(c.Context(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, dto.NewProjectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateProject POST /projects (admin).
func (h *ProjectsHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	project, err := h.projects.CreateProject(c.Context(), service.ProjectCreateInput{
		Name:        req.Name,
		Description: req.Description,
		Members:     req.Members,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// GetProject GET /projects/:id.
func (h *ProjectsHandler) GetProject(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	project, err := h.projects.GetProject(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// PatchProject PATCH /projects/:id (admin).
func (h *ProjectsHandler) PatchProject(c *fiber.Ctx) error {
	var req dto.ProjectPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	project, err := h.projects.UpdateProject(c.Context(), c.Params("id"), service.ProjectUpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}

// DeleteProject DELETE /projects/:id (admin).
func (h *ProjectsHandler) DeleteProject(c *fiber.Ctx) error {
	if err := h.projects.DeleteProject(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// PatchMembers PATCH /projects/:id/members (admin).
func (h *ProjectsHandler) PatchMembers(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.MemberPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	project, err := h.projects.PatchMembers(c.Context(), actor, c.Params("id"), service.MemberPatchInput{
		Add:    req.Add,
		Remove: req.Remove,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewProjectResponse(project)})
}
