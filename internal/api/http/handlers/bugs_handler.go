package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtrack-service/internal/api/dto"
	"github.com/spec-kit/bugtrack-service/internal/domain"
	"github.com/spec-kit/bugtrack-service/internal/service"
	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

// BugsHandler exposes bug endpoints.
type BugsHandler struct {
	bugs *service.BugService
}

// NewBugsHandler constructs handler.
func NewBugsHandler(bugService *service.BugService) *BugsHandler {
	return &BugsHandler{bugs: bugService}
}

// ListProjectBugs GET /projects/:projectId/bugs.
func (h *BugsHandler) ListProjectBugs(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	bugs, total, err := h.bugs.ListBugs(c.Context(), actor, c.Params("projectId"), parseBugQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bugResponses(bugs), "total": total})
}

// ListModuleBugs GET /modules/:moduleId/bugs.
func (h *BugsHandler) ListModuleBugs(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	bugs, total, err := h.bugs.ListBugsByModule(c.Context(), actor, c.Params("moduleId"), parseBugQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bugResponses(bugs), "total": total})
}

// CreateBug POST /modules/:moduleId/bugs.
func (h *BugsHandler) CreateBug(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateBugRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	bug, err := h.bugs.CreateBug(c.Context(), actor, c.Params("moduleId"), service.BugCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Assignees:   req.Assignees,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewBugResponse(bug)})
}

// GetBug GET /bugs/:id.
func (h *BugsHandler) GetBug(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	bug, err := h.bugs.GetBug(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBugResponse(bug)})
}

// PatchBug PATCH /bugs/:id.
func (h *BugsHandler) PatchBug(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.BugPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	bug, err := h.bugs.UpdateBug(c.Context(), actor, c.Params("id"), service.BugUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		ModuleID:    req.ModuleID,
		Assignees:   req.Assignees,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBugResponse(bug)})
}

// DeleteBug DELETE /bugs/:id.
func (h *BugsHandler) DeleteBug(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	if err := h.bugs.DeleteBug(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ChangeStatus PATCH /bugs/:id/status.
func (h *BugsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	bug, err := h.bugs.ChangeStatus(c.Context(), actor, c.Params("id"), service.StatusChangeInput{
		From: req.From,
		To:   req.To,
		Note: req.Note,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "status": bug.Status})
}

// ListActivities GET /bugs/:id/activities.
func (h *BugsHandler) ListActivities(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	activities, err := h.bugs.ListActivities(c.Context(), actor, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(activities))
	for i := range activities {
		items = append(items, dto.NewActivityResponse(&activities[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseBugQuery(c *fiber.Ctx) service.BugListFilter {
	filter := service.BugListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.BugStatus(statusStr)
		filter.Status = &status
	}
	if assignee := c.Query("assignee"); assignee != "" {
		filter.Assignee = &assignee
	}
	filter.Limit, filter.Offset = parsePagination(c)
	return filter
}

func bugResponses(bugs []domain.Bug) []dto.BugResponse {
	items := make([]dto.BugResponse, 0, len(bugs))
	for i := range bugs {
		items = append(items, dto.NewBugResponse(&bugs[i]))
	}
	return items
}
