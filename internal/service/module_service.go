package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/bugtrack-service/internal/domain"
	"github.com/spec-kit/bugtrack-service/internal/events"
	"github.com/spec-kit/bugtrack-service/internal/repository"
	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

// ModuleService orchestrates module operations within a project.
type ModuleService struct {
	modules    repository.ModuleRepository
	projects   repository.ProjectRepository
	activities *ActivityService
	dispatcher events.Dispatcher
}

// ModuleDependencies bundles collaborators for the module service.
type ModuleDependencies struct {
	ModuleRepo  repository.ModuleRepository
	ProjectRepo repository.ProjectRepository
	Activities  *ActivityService
	Dispatcher  events.Dispatcher
}

// ModuleWithProject pairs a module with its project name for listings.
type ModuleWithProject struct {
	Module      domain.Module
	ProjectName string
}

// NewModuleService constructs the service.
func NewModuleService(deps ModuleDependencies) *ModuleService {
	return &ModuleService{
		modules:    deps.ModuleRepo,
		projects:   deps.ProjectRepo,
		activities: deps.Activities,
		dispatcher: deps.Dispatcher,
	}
}

// CreateModule adds a module to a project. Only testers who are project
// members, or admins, may create.
func (s *ModuleService) CreateModule(ctx context.Context, actor Actor, projectID, name string) (*domain.Module, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !canCreateModule(actor, project) {
		if actor.Role != domain.RoleTester && !actor.IsAdmin() {
			return nil, apperrors.NewForbidden("only tester or admin can create modules")
		}
		return nil, apperrors.NewForbidden("you are not assigned to this project")
	}

	module := &domain.Module{
		ProjectID: project.ID,
		Name:      strings.TrimSpace(name),
		CreatedBy: actor.ID,
	}
	if err := s.modules.Create(ctx, module); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.activities.Record(ctx, &domain.Activity{
		ModuleID: &module.ID,
		ActorID:  actor.ID,
		Action:   domain.ActionCreateModule,
		To: map[string]any{
			"name":       module.Name,
			"project_id": module.ProjectID,
		},
	})
	s.publishEvent(ctx, events.Event{
		Type:    events.EventModuleCreated,
		ActorID: actor.ID,
		Payload: events.ModuleCreatedPayload{
			ModuleID:  module.ID,
			ProjectID: module.ProjectID,
			Name:      module.Name,
		},
	})
	return module, nil
}

// ListModules returns a project's modules, gated on membership.
func (s *ModuleService) ListModules(ctx context.Context, actor Actor, projectID string) ([]ModuleWithProject, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !canViewProject(actor, project) {
		return nil, apperrors.NewForbidden("you are not assigned to this project")
	}
	modules, err := s.modules.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]ModuleWithProject, 0, len(modules))
	for _, module := range modules {
		result = append(result, ModuleWithProject{Module: module, ProjectName: project.Name})
	}
	return result, nil
}

// ListMine returns modules across every project the actor belongs to.
// Admins see modules for all projects.
func (s *ModuleService) ListMine(ctx context.Context, actor Actor) ([]ModuleWithProject, error) {
	if actor.IsAdmin() {
		modules, err := s.modules.ListAll(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		return s.withProjectNames(ctx, modules)
	}

	projects, err := s.projects.ListByMember(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(projects) == 0 {
		return []ModuleWithProject{}, nil
	}
	names := make(map[string]string, len(projects))
	ids := make([]string, 0, len(projects))
	for _, project := range projects {
		names[project.ID] = project.Name
		ids = append(ids, project.ID)
	}
	modules, err := s.modules.ListByProjects(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]ModuleWithProject, 0, len(modules))
	for _, module := range modules {
		result = append(result, ModuleWithProject{Module: module, ProjectName: names[module.ProjectID]})
	}
	return result, nil
}

func (s *ModuleService) withProjectNames(ctx context.Context, modules []domain.Module) ([]ModuleWithProject, error) {
	names := make(map[string]string)
	result := make([]ModuleWithProject, 0, len(modules))
	for _, module := range modules {
		name, ok := names[module.ProjectID]
		if !ok {
			project, err := s.projects.GetByID(ctx, module.ProjectID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					// orphan module from a deleted project; keep it listed
					names[module.ProjectID] = ""
					result = append(result, ModuleWithProject{Module: module})
					continue
				}
				return nil, apperrors.MapError(err)
			}
			name = project.Name
			names[module.ProjectID] = name
		}
		result = append(result, ModuleWithProject{Module: module, ProjectName: name})
	}
	return result, nil
}

func (s *ModuleService) getProject(ctx context.Context, id string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

func (s *ModuleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
