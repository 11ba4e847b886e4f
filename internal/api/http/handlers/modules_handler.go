package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtrack-service/internal/api/dto"
	"github.com/spec-kit/bugtrack-service/internal/service"
	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

// ModulesHandler exposes module endpoints.
type ModulesHandler struct {
	modules *service.ModuleService
}

// NewModulesHandler constructs handler.
func NewModulesHandler(moduleService *service.ModuleService) *ModulesHandler {
	return &ModulesHandler{modules: moduleService}
}

// ListModules GET /projects/:projectId/modules.
func (h *ModulesHandler) ListModules(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	modules, err := h.modules.ListModules(c.Context(), actor, c.Params("projectId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": moduleResponses(modules)})
}

// CreateModule POST /projects/:projectId/modules.
func (h *ModulesHandler) CreateModule(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateModuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	module, err := h.modules.CreateModule(c.Context(), actor, c.Params("projectId"), req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ModuleResponse{
		ID:        module.ID,
		Name:      module.Name,
		Project:   &dto.ModuleProjectRef{ID: module.ProjectID},
		CreatedBy: module.CreatedBy,
		CreatedAt: module.CreatedAt,
		UpdatedAt: module.UpdatedAt,
	}})
}

// ListMine GET /modules/my-modules.
func (h *ModulesHandler) ListMine(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	modules, err := h.modules.ListMine(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": moduleResponses(modules)})
}

func moduleResponses(modules []service.ModuleWithProject) []dto.ModuleResponse {
	items := make([]dto.ModuleResponse, 0, len(modules))
	for _, entry := range modules {
		resp := dto.ModuleResponse{
			ID:        entry.Module.ID,
			Name:      entry.Module.Name,
			CreatedBy: entry.Module.CreatedBy,
			CreatedAt: entry.Module.CreatedAt,
			UpdatedAt: entry.Module.UpdatedAt,
		}
		if entry.ProjectName != "" || entry.Module.ProjectID != "" {
			resp.Project = &dto.ModuleProjectRef{ID: entry.Module.ProjectID, Name: entry.ProjectName}
		}
		items = append(items, resp)
	}
	return items
}
