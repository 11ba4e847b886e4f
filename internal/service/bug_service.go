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

// BugService orchestrates bug mutations: it resolves parents, runs the
// access policy and the status workflow, persists, and appends audit records.
type BugService struct {
	bugs       repository.BugRepository
	modules    repository.ModuleRepository
	projects   repository.ProjectRepository
	activities *ActivityService
	dispatcher events.Dispatcher
}

// BugDependencies bundles collaborators for the bug service.
type BugDependencies struct {
	BugRepo     repository.BugRepository
	ModuleRepo  repository.ModuleRepository
	ProjectRepo repository.ProjectRepository
	Activities  *ActivityService
	Dispatcher  events.Dispatcher
}

// BugCreateInput describes bug creation payload.
type BugCreateInput struct {
	Title       string
	Description string
	Assignees   []string
}

// BugUpdateInput describes a partial bug update. Nil fields are untouched.
type BugUpdateInput struct {
	Title       *string
	Description *string
	ModuleID    *string
	Assignees   []string
}

// BugListFilter describes listing filters.
type BugListFilter struct {
	Status   *domain.BugStatus
	Assignee *string
	Limit    int
	Offset   int
}

// StatusChangeInput carries an explicit from/to pair plus an optional note.
type StatusChangeInput struct {
	From domain.BugStatus
	To   domain.BugStatus
	Note string
}

// NewBugService constructs the service.
func NewBugService(deps BugDependencies) *BugService {
	return &BugService{
		bugs:       deps.BugRepo,
		modules:    deps.ModuleRepo,
		projects:   deps.ProjectRepo,
		activities: deps.Activities,
		dispatcher: deps.Dispatcher,
	}
}

// CreateBug files a bug under a module. Testers must be members of the
// owning project; assignees must be a subset of its members.
func (s *BugService) CreateBug(ctx context.Context, actor Actor, moduleID string, input BugCreateInput) (*domain.Bug, error) {
	module, err := s.getModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	project, err := s.getProject(ctx, module.ProjectID)
	if err != nil {
		return nil, err
	}
	if !canCreateBug(actor, project) {
		return nil, apperrors.NewForbidden("you are not assigned to this project")
	}
	if outside := assigneesWithinMembers(project, input.Assignees); len(outside) > 0 {
		return nil, apperrors.NewValidationError("assignees must be project members", map[string]any{
			"assignees": outside,
		})
	}

	bug := &domain.Bug{
		ProjectID:   project.ID,
		ModuleID:    module.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.BugStatusOpen,
		ReportedBy:  actor.ID,
		Assignees:   input.Assignees,
	}
	if err := s.bugs.Create(ctx, bug); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.activities.Record(ctx, &domain.Activity{
		BugID:   &bug.ID,
		ActorID: actor.ID,
		Action:  domain.ActionCreate,
		To:      bugSnapshot(bug),
	})
	s.publishEvent(ctx, events.Event{
		Type:    events.EventBugCreated,
		ActorID: actor.ID,
		Payload: events.BugCreatedPayload{
			BugID:     bug.ID,
			ProjectID: bug.ProjectID,
			ModuleID:  bug.ModuleID,
			Title:     bug.Title,
			Assignees: bug.Assignees,
		},
	})
	return bug, nil
}

// ListBugs returns bugs scoped to a project, gated on membership.
func (s *BugService) ListBugs(ctx context.Context, actor Actor, projectID string, filter BugListFilter) ([]domain.Bug, int, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	if !canViewProject(actor, project) {
		return nil, 0, apperrors.NewForbidden("you are not assigned to this project")
	}
	repoFilter := repository.BugFilter{
		ProjectID: &projectID,
		Status:    filter.Status,
		Assignee:  filter.Assignee,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	bugs, total, err := s.bugs.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return bugs, total, nil
}

// ListBugsByModule returns bugs scoped to a module, gated on membership.
func (s *BugService) ListBugsByModule(ctx context.Context, actor Actor, moduleID string, filter BugListFilter) ([]domain.Bug, int, error) {
	module, err := s.getModule(ctx, moduleID)
	if err != nil {
		return nil, 0, err
	}
	project, err := s.getProject(ctx, module.ProjectID)
	if err != nil {
		return nil, 0, err
	}
	if !canViewProject(actor, project) {
		return nil, 0, apperrors.NewForbidden("you are not assigned to this project")
	}
	repoFilter := repository.BugFilter{
		ModuleID: &moduleID,
		Status:   filter.Status,
		Assignee: filter.Assignee,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	bugs, total, err := s.bugs.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return bugs, total, nil
}

// GetBug fetches a bug ensuring project access.
func (s *BugService) GetBug(ctx context.Context, actor Actor, bugID string) (*domain.Bug, error) {
	bug, err := s.getBug(ctx, bugID)
	if err != nil {
		return nil, err
	}
	project, err := s.getProject(ctx, bug.ProjectID)
	if err != nil {
		return nil, err
	}
	if !canViewProject(actor, project) {
		return nil, apperrors.NewForbidden("you are not assigned to this project")
	}
	return bug, nil
}

// UpdateBug applies a partial update. Assignee changes are validated against
// the project member set and rejected atomically when any id falls outside.
func (s *BugService) UpdateBug(ctx context.Context, actor Actor, bugID string, input BugUpdateInput) (*domain.Bug, error) {
	bug, err := s.getBug(ctx, bugID)
	if err != nil {
		return nil, err
	}
	project, err := s.getProject(ctx, bug.ProjectID)
	if err != nil {
		return nil, err
	}

	touchesGeneral := input.Title != nil || input.Description != nil || input.ModuleID != nil
	if touchesGeneral && !canEditBug(actor, bug) {
		return nil, apperrors.NewForbidden("only reporter, assignee or admin can update")
	}
	if input.Assignees != nil && !canEditAssignees(actor, bug, project) {
		return nil, apperrors.NewForbidden("only reporter, assignee, project tester or admin can reassign")
	}

	before := bugSnapshot(bug)

	if input.Title != nil {
		bug.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		bug.Description = strings.TrimSpace(*input.Description)
	}
	if input.ModuleID != nil && *input.ModuleID != bug.ModuleID {
		module, err := s.getModule(ctx, *input.ModuleID)
		if err != nil {
			return nil, err
		}
		if module.ProjectID != bug.ProjectID {
			return nil, apperrors.NewValidationError("module belongs to a different project", nil)
		}
		bug.ModuleID = module.ID
	}
	if input.Assignees != nil {
		if outside := assigneesWithinMembers(project, input.Assignees); len(outside) > 0 {
			return nil, apperrors.NewValidationError("assignees must be project members", map[string]any{
				"assignees": outside,
			})
		}
		bug.Assignees = input.Assignees
	}

	if err := s.bugs.Update(ctx, bug); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.activities.Record(ctx, &domain.Activity{
		BugID:   &bug.ID,
		ActorID: actor.ID,
		Action:  domain.ActionUpdate,
		From:    before,
		To:      bugSnapshot(bug),
	})
	s.publishEvent(ctx, events.Event{
		Type:    events.EventBugUpdated,
		ActorID: actor.ID,
		Payload: events.BugUpdatedPayload{
			BugID:     bug.ID,
			Assignees: bug.Assignees,
		},
	})
	return bug, nil
}

// DeleteBug removes a bug; reporter or admin only.
func (s *BugService) DeleteBug(ctx context.Context, actor Actor, bugID string) error {
	bug, err := s.getBug(ctx, bugID)
	if err != nil {
		return err
	}
	if !canDeleteBug(actor, bug) {
		return apperrors.NewForbidden("only reporter or admin can delete")
	}
	if err := s.bugs.Delete(ctx, bug.ID); err != nil {
		return apperrors.MapError(err)
	}

	s.activities.Record(ctx, &domain.Activity{
		BugID:   &bug.ID,
		ActorID: actor.ID,
		Action:  domain.ActionDelete,
		From:    bugSnapshot(bug),
	})
	s.publishEvent(ctx, events.Event{
		Type:    events.EventBugDeleted,
		ActorID: actor.ID,
		Payload: events.BugDeletedPayload{
			BugID:     bug.ID,
			ProjectID: bug.ProjectID,
		},
	})
	return nil
}

// ChangeStatus drives the status workflow for a bug.
func (s *BugService) ChangeStatus(ctx context.Context, actor Actor, bugID string, input StatusChangeInput) (*domain.Bug, error) {
	bug, err := s.getBug(ctx, bugID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(actor, bug, input.From, input.To); err != nil {
		return nil, err
	}

	before := bug.Status
	// Conditional write: another request may have moved the status between
	// our read and here, in which case the swap loses and the caller sees the
	// same conflict a stale from gets.
	if err := s.bugs.UpdateStatus(ctx, bug.ID, input.From, input.To); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("from status mismatch", map[string]any{
				"from": string(input.From),
			})
		}
		return nil, apperrors.MapError(err)
	}
	bug.Status = input.To

	s.activities.Record(ctx, &domain.Activity{
		BugID:   &bug.ID,
		ActorID: actor.ID,
		Action:  domain.ActionStatusChange,
		From:    map[string]any{"status": string(before)},
		To:      map[string]any{"status": string(bug.Status)},
		Note:    input.Note,
	})
	s.publishEvent(ctx, events.Event{
		Type:    events.EventBugStatusChanged,
		ActorID: actor.ID,
		Payload: events.BugStatusChangedPayload{
			BugID:     bug.ID,
			OldStatus: before,
			NewStatus: bug.Status,
			Note:      input.Note,
		},
	})
	return bug, nil
}

// ListActivities returns the audit trail for a bug under the same access
// rule as viewing the bug itself.
func (s *BugService) ListActivities(ctx context.Context, actor Actor, bugID string, limit, offset int) ([]domain.Activity, error) {
	bug, err := s.getBug(ctx, bugID)
	if err != nil {
		return nil, err
	}
	project, err := s.getProject(ctx, bug.ProjectID)
	if err != nil {
		return nil, err
	}
	if !canViewProject(actor, project) {
		return nil, apperrors.NewForbidden("you are not assigned to this project")
	}
	acts, err := s.activities.ListByBug(ctx, bug.ID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return acts, nil
}

func (s *BugService) getBug(ctx context.Context, id string) (*domain.Bug, error) {
	bug, err := s.bugs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("bug", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return bug, nil
}

func (s *BugService) getModule(ctx context.Context, id string) (*domain.Module, error) {
	module, err := s.modules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("module", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return module, nil
}

func (s *BugService) getProject(ctx context.Context, id string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

func (s *BugService) publishEvent(ctx context.Context, event events.Event) {
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

func bugSnapshot(bug *domain.Bug) map[string]any {
	return map[string]any{
		"title":       bug.Title,
		"description": bug.Description,
		"module_id":   bug.ModuleID,
		"status":      string(bug.Status),
		"assignees":   append([]string{}, bug.Assignees...),
	}
}
