package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/bugtrack-service/internal/domain"
	"github.com/spec-kit/bugtrack-service/internal/repository"
)

// In-memory fakes for the repository interfaces. Writes can be forced to
// fail via failNext to exercise error paths.

type fakeBugRepo struct {
	bugs     map[string]*domain.Bug
	seq      int
	failNext error
}

func newFakeBugRepo() *fakeBugRepo {
	return &fakeBugRepo{bugs: make(map[string]*domain.Bug)}
}

func (r *fakeBugRepo) takeErr() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *fakeBugRepo) Create(_ context.Context, bug *domain.Bug) error {
	if err := r.takeErr(); err != nil {
		return err
	}
	r.seq++
	bug.ID = fmt.Sprintf("bug-%d", r.seq)
	clone := *bug
	r.bugs[bug.ID] = &clone
	return nil
}

func (r *fakeBugRepo) Update(_ context.Context, bug *domain.Bug) error {
	if err := r.takeErr(); err != nil {
		return err
	}
	if _, ok := r.bugs[bug.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *bug
	r.bugs[bug.ID] = &clone
	return nil
}

func (r *fakeBugRepo) UpdateStatus(_ context.Context, id string, from, to domain.BugStatus) error {
	if err := r.takeErr(); err != nil {
		return err
	}
	bug, ok := r.bugs[id]
	if !ok || bug.Status != from {
		return pgx.ErrNoRows
	}
	bug.Status = to
	return nil
}

func (r *fakeBugRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.bugs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.bugs, id)
	return nil
}

func (r *fakeBugRepo) GetByID(_ context.Context, id string) (*domain.Bug, error) {
	bug, ok := r.bugs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *bug
	clone.Assignees = append([]string{}, bug.Assignees...)
	return &clone, nil
}

func (r *fakeBugRepo) ListWithFilter(_ context.Context, filter repository.BugFilter) ([]domain.Bug, int, error) {
	var result []domain.Bug
	for _, bug := range r.bugs {
		if filter.ProjectID != nil && bug.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.ModuleID != nil && bug.ModuleID != *filter.ModuleID {
			continue
		}
		if filter.Status != nil && bug.Status != *filter.Status {
			continue
		}
		if filter.Assignee != nil && !bug.HasAssignee(*filter.Assignee) {
			continue
		}
		result = append(result, *bug)
	}
	return result, len(result), nil
}

type fakeModuleRepo struct {
	modules map[string]*domain.Module
	seq     int
}

func newFakeModuleRepo() *fakeModuleRepo {
	return &fakeModuleRepo{modules: make(map[string]*domain.Module)}
}

func (r *fakeModuleRepo) Create(_ context.Context, module *domain.Module) error {
	r.seq++
	module.ID = fmt.Sprintf("module-%d", r.seq)
	clone := *module
	r.modules[module.ID] = &clone
	return nil
}

func (r *fakeModuleRepo) GetByID(_ context.Context, id string) (*domain.Module, error) {
	module, ok := r.modules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *module
	return &clone, nil
}

func (r *fakeModuleRepo) ListByProject(_ context.Context, projectID string) ([]domain.Module, error) {
	var result []domain.Module
	for _, module := range r.modules {
		if module.ProjectID == projectID {
			result = append(result, *module)
		}
	}
	return result, nil
}

func (r *fakeModuleRepo) ListByProjects(_ context.Context, projectIDs []string) ([]domain.Module, error) {
	var result []domain.Module
	for _, module := range r.modules {
		for _, id := range projectIDs {
			if module.ProjectID == id {
				result = append(result, *module)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeModuleRepo) ListAll(_ context.Context) ([]domain.Module, error) {
	var result []domain.Module
	for _, module := range r.modules {
		result = append(result, *module)
	}
	return result, nil
}

type fakeProjectRepo struct {
	projects map[string]*domain.Project
	seq      int
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*domain.Project)}
}

func (r *fakeProjectRepo) Create(_ context.Context, project *domain.Project) error {
	r.seq++
	project.ID = fmt.Sprintf("project-%d", r.seq)
	clone := *project
	clone.Members = append([]string{}, project.Members...)
	r.projects[project.ID] = &clone
	return nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *domain.Project) error {
	if _, ok := r.projects[project.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *project
	clone.Members = append([]string{}, project.Members...)
	r.projects[project.ID] = &clone
	return nil
}

func (r *fakeProjectRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.projects[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.projects, id)
	return nil
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	project, ok := r.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *project
	clone.Members = append([]string{}, project.Members...)
	return &clone, nil
}

func (r *fakeProjectRepo) ListWithFilter(_ context.Context, filter repository.ProjectFilter) ([]domain.Project, int, error) {
	var result []domain.Project
	for _, project := range r.projects {
		if filter.Status != nil && project.Status != *filter.Status {
			continue
		}
		if filter.Member != nil && !project.HasMember(*filter.Member) {
			continue
		}
		result = append(result, *project)
	}
	return result, len(result), nil
}

func (r *fakeProjectRepo) ListByMember(_ context.Context, userID string) ([]domain.Project, error) {
	var result []domain.Project
	for _, project := range r.projects {
		if project.HasMember(userID) {
			result = append(result, *project)
		}
	}
	return result, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ExistAll(_ context.Context, ids []string) (bool, error) {
	for _, id := range ids {
		if _, ok := r.users[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (r *fakeUserRepo) ListWithFilter(_ context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	var result []domain.User
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		result = append(result, *user)
	}
	return result, len(result), nil
}

type fakeActivityRepo struct {
	records  []domain.Activity
	failNext error
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{}
}

func (r *fakeActivityRepo) Create(_ context.Context, activity *domain.Activity) error {
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	activity.ID = fmt.Sprintf("activity-%d", len(r.records)+1)
	r.records = append(r.records, *activity)
	return nil
}

func (r *fakeActivityRepo) ListByBug(_ context.Context, bugID string, _, _ int) ([]domain.Activity, error) {
	var result []domain.Activity
	for _, record := range r.records {
		if record.BugID != nil && *record.BugID == bugID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (r *fakeActivityRepo) lastAction() (domain.ActivityAction, bool) {
	if len(r.records) == 0 {
		return "", false
	}
	return r.records[len(r.records)-1].Action, true
}
