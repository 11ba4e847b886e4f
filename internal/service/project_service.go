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

// ProjectService orchestrates project operations. Create, patch, delete and
// member edits are admin routes; reads are membership-gated.
type ProjectService struct {
	projects   repository.ProjectRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// ProjectDependencies bundles collaborators for the project service.
type ProjectDependencies struct {
	ProjectRepo repository.ProjectRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// ProjectCreateInput describes project creation payload.
type ProjectCreateInput struct {
	Name        string
	Description string
	Members     []string
}

// ProjectUpdateInput describes a partial project update.
type ProjectUpdateInput struct {
	Name        *string
	Description *string
	Status      *domain.ProjectStatus
}

// MemberPatchInput describes a membership set edit.
type MemberPatchInput struct {
	Add    []string
	Remove []string
}

// NewProjectService constructs the service.
func NewProjectService(deps ProjectDependencies) *ProjectService {
	return &ProjectService{
		projects:   deps.ProjectRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateProject creates a project after checking every member id resolves.
func (s *ProjectService) CreateProject(ctx context.Context, input ProjectCreateInput) (*domain.Project, error) {
	if len(input.Members) > 0 {
		ok, err := s.users.ExistAll(ctx, input.Members)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !ok {
			return nil, apperrors.NewValidationError("one or more members do not exist", nil)
		}
	}

	project := &domain.Project{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Members:     input.Members,
		Status:      domain.ProjectStatusActive,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// ListProjects returns projects matching the filter with a total count.
func (s *ProjectService) ListProjects(ctx context.Context, filter repository.ProjectFilter) ([]domain.Project, int, error) {
	projects, total, err := s.projects.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return projects, total, nil
}

// ListAssigned returns the projects the actor is a member of.
func (s *ProjectService) ListAssigned(ctx context.Context, actor Actor) ([]domain.Project, error) {
	projects, err := s.projects.ListByMember(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return projects, nil
}

// GetProject fetches a project, gated on membership.
func (s *ProjectService) GetProject(ctx context.Context, actor Actor, id string) (*domain.Project, error) {
	project, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewProject(actor, project) {
		return nil, apperrors.NewForbidden("you are not assigned to this project")
	}
	return project, nil
}

// UpdateProject applies a partial update to name, description or status.
func (s *ProjectService) UpdateProject(ctx context.Context, id string, input ProjectUpdateInput) (*domain.Project, error) {
	project, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		project.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// DeleteProject removes a project. Modules and bugs underneath are left in
// place; there is no cascade.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("project", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// PatchMembers applies a set union of Add and difference of Remove to the
// membership. Added ids must resolve to existing users.
func (s *ProjectService) PatchMembers(ctx context.Context, actor Actor, id string, input MemberPatchInput) (*domain.Project, error) {
	if len(input.Add) == 0 && len(input.Remove) == 0 {
		return nil, apperrors.NewValidationError("add or remove required", nil)
	}
	project, err := s.getProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(input.Add) > 0 {
		ok, err := s.users.ExistAll(ctx, input.Add)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !ok {
			return nil, apperrors.NewValidationError("one or more members do not exist", nil)
		}
	}

	project.Members = patchMemberSet(project.Members, input.Add, input.Remove)
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventProjectMembersChanged,
		ActorID: actor.ID,
		Payload: events.ProjectMembersChangedPayload{
			ProjectID: project.ID,
			Members:   project.Members,
		},
	})
	return project, nil
}

// patchMemberSet unions add into members, then drops everything in remove,
// preserving first-seen order and deduplicating.
func patchMemberSet(members, add, remove []string) []string {
	removed := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		removed[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(members)+len(add))
	result := make([]string, 0, len(members)+len(add))
	for _, id := range append(append([]string{}, members...), add...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, gone := removed[id]; gone {
			continue
		}
		result = append(result, id)
	}
	return result
}

func (s *ProjectService) getProject(ctx context.Context, id string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

func (s *ProjectService) publishEvent(ctx context.Context, event events.Event) {
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
