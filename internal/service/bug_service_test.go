package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/bugtrack-service/internal/domain"
	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

type bugFixture struct {
	svc        *BugService
	bugs       *fakeBugRepo
	modules    *fakeModuleRepo
	projects   *fakeProjectRepo
	activities *fakeActivityRepo
	project    *domain.Project
	module     *domain.Module
}

func newBugFixture(t *testing.T, members ...string) *bugFixture {
	t.Helper()
	bugs := newFakeBugRepo()
	modules := newFakeModuleRepo()
	projects := newFakeProjectRepo()
	activities := newFakeActivityRepo()

	project := &domain.Project{
		Name:    "billing",
		Members: members,
		Status:  domain.ProjectStatusActive,
	}
	if err := projects.Create(context.Background(), project); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	module := &domain.Module{ProjectID: project.ID, Name: "invoices", CreatedBy: "tester-1"}
	if err := modules.Create(context.Background(), module); err != nil {
		t.Fatalf("seed module: %v", err)
	}

	svc := NewBugService(BugDependencies{
		BugRepo:     bugs,
		ModuleRepo:  modules,
		ProjectRepo: projects,
		Activities:  NewActivityService(activities, zap.NewNop()),
	})
	return &bugFixture{
		svc:        svc,
		bugs:       bugs,
		modules:    modules,
		projects:   projects,
		activities: activities,
		project:    project,
		module:     module,
	}
}

func (f *bugFixture) seedBug(t *testing.T, reporter string, assignees ...string) *domain.Bug {
	t.Helper()
	bug := &domain.Bug{
		ProjectID:  f.project.ID,
		ModuleID:   f.module.ID,
		Title:      "totals off by one",
		Status:     domain.BugStatusOpen,
		ReportedBy: reporter,
		Assignees:  assignees,
	}
	if err := f.bugs.Create(context.Background(), bug); err != nil {
		t.Fatalf("seed bug: %v", err)
	}
	return bug
}

func TestCreateBugAsTesterMember(t *testing.T) {
	f := newBugFixture(t, "tester-1", "dev-1")
	actor := Actor{ID: "tester-1", Role: domain.RoleTester}

	bug, err := f.svc.CreateBug(context.Background(), actor, f.module.ID, BugCreateInput{
		Title:     "totals off by one",
		Assignees: []string{"dev-1"},
	})
	if err != nil {
		t.Fatalf("CreateBug: %v", err)
	}
	if bug.Status != domain.BugStatusOpen {
		t.Errorf("new bug status = %s, want open", bug.Status)
	}
	if bug.ReportedBy != "tester-1" {
		t.Errorf("reported_by = %s, want tester-1", bug.ReportedBy)
	}
	if bug.ProjectID != f.project.ID {
		t.Errorf("project_id = %s, want %s", bug.ProjectID, f.project.ID)
	}
	if action, ok := f.activities.lastAction(); !ok || action != domain.ActionCreate {
		t.Errorf("expected a create activity, got %q", action)
	}
}

func TestCreateBugForbiddenForDeveloper(t *testing.T) {
	f := newBugFixture(t, "dev-1")
	actor := Actor{ID: "dev-1", Role: domain.RoleDeveloper}

	_, err := f.svc.CreateBug(context.Background(), actor, f.module.ID, BugCreateInput{Title: "nope"})
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("developer create should be forbidden, got %v", err)
	}
	if len(f.bugs.bugs) != 0 {
		t.Error("no bug should be persisted")
	}
}

func TestCreateBugForbiddenForNonMemberTester(t *testing.T) {
	f := newBugFixture(t, "dev-1")
	actor := Actor{ID: "tester-9", Role: domain.RoleTester}

	_, err := f.svc.CreateBug(context.Background(), actor, f.module.ID, BugCreateInput{Title: "nope"})
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("non-member tester should be forbidden, got %v", err)
	}
}

func TestCreateBugRejectsOutsideAssignees(t *testing.T) {
	f := newBugFixture(t, "tester-1", "dev-1")
	actor := Actor{ID: "tester-1", Role: domain.RoleTester}

	_, err := f.svc.CreateBug(context.Background(), actor, f.module.ID, BugCreateInput{
		Title:     "totals off by one",
		Assignees: []string{"dev-1", "outsider-1"},
	})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("outside assignee should fail validation, got %v", err)
	}
	if len(f.bugs.bugs) != 0 {
		t.Error("rejection must be atomic; no bug persisted")
	}
}

func TestCreateBugUnknownModule(t *testing.T) {
	f := newBugFixture(t, "tester-1")
	actor := Actor{ID: "tester-1", Role: domain.RoleTester}

	_, err := f.svc.CreateBug(context.Background(), actor, "missing", BugCreateInput{Title: "x"})
	if !apperrors.IsCode(err, "NOT_FOUND") {
		t.Fatalf("unknown module should be not found, got %v", err)
	}
}

func TestCreateBugSurvivesActivityFailure(t *testing.T) {
	f := newBugFixture(t, "tester-1")
	f.activities.failNext = errors.New("disk full")
	actor := Actor{ID: "tester-1", Role: domain.RoleTester}

	bug, err := f.svc.CreateBug(context.Background(), actor, f.module.ID, BugCreateInput{Title: "audit down"})
	if err != nil {
		t.Fatalf("activity failure must not surface: %v", err)
	}
	if bug.ID == "" {
		t.Error("bug should still be persisted")
	}
	if len(f.activities.records) != 0 {
		t.Error("failed append should not record")
	}
}

func TestUpdateBugAtomicAssigneeRejection(t *testing.T) {
	f := newBugFixture(t, "tester-1", "dev-1")
	bug := f.seedBug(t, "tester-1", "dev-1")
	actor := Actor{ID: "tester-1", Role: domain.RoleTester}

	newTitle := "renamed"
	_, err := f.svc.UpdateBug(context.Background(), actor, bug.ID, BugUpdateInput{
		Title:     &newTitle,
		Assignees: []string{"dev-1", "outsider-1"},
	})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("mixed update with bad assignee should fail validation, got %v", err)
	}

	stored, getErr := f.bugs.GetByID(context.Background(), bug.ID)
	if getErr != nil {
		t.Fatalf("GetByID: %v", getErr)
	}
	if stored.Title != "totals off by one" {
		t.Errorf("title changed despite rejection: %q", stored.Title)
	}
	if len(stored.Assignees) != 1 || stored.Assignees[0] != "dev-1" {
		t.Errorf("assignees changed despite rejection: %v", stored.Assignees)
	}
	if len(f.activities.records) != 0 {
		t.Error("no activity should be appended for a rejected update")
	}
}

func TestUpdateBugGeneralFieldsRequireEditRight(t *testing.T) {
	f := newBugFixture(t, "tester-1", "tester-2", "dev-1")
	bug := f.seedBug(t, "tester-1", "dev-1")

	// tester-2 is a member but neither reporter nor assignee: may reassign,
	// may not touch general fields.
	actor := Actor{ID: "tester-2", Role: domain.RoleTester}

	newTitle := "renamed"
	_, err := f.svc.UpdateBug(context.Background(), actor, bug.ID, BugUpdateInput{Title: &newTitle})
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("general edit should be forbidden, got %v", err)
	}

	updated, err := f.svc.UpdateBug(context.Background(), actor, bug.ID, BugUpdateInput{
		Assignees: []string{"tester-2"},
	})
	if err != nil {
		t.Fatalf("member tester reassign should pass: %v", err)
	}
	if len(updated.Assignees) != 1 || updated.Assignees[0] != "tester-2" {
		t.Errorf("assignees = %v, want [tester-2]", updated.Assignees)
	}
	if action, ok := f.activities.lastAction(); !ok || action != domain.ActionUpdate {
		t.Errorf("expected an update activity, got %q", action)
	}
}

func TestUpdateBugModuleMustShareProject(t *testing.T) {
	f := newBugFixture(t, "tester-1")
	bug := f.seedBug(t, "tester-1")

	other := &domain.Project{Name: "other", Status: domain.ProjectStatusActive}
	if err := f.projects.Create(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	foreign := &domain.Module{ProjectID: other.ID, Name: "payments", CreatedBy: "admin-1"}
	if err := f.modules.Create(context.Background(), foreign); err != nil {
		t.Fatal(err)
	}

	actor := Actor{ID: "tester-1", Role: domain.RoleTester}
	_, err := f.svc.UpdateBug(context.Background(), actor, bug.ID, BugUpdateInput{ModuleID: &foreign.ID})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("cross-project module move should fail validation, got %v", err)
	}
}

func TestDeleteBugReporterOnly(t *testing.T) {
	f := newBugFixture(t, "tester-1", "dev-1")
	bug := f.seedBug(t, "tester-1", "dev-1")

	err := f.svc.DeleteBug(context.Background(), Actor{ID: "dev-1", Role: domain.RoleDeveloper}, bug.ID)
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("assignee delete should be forbidden, got %v", err)
	}

	if err := f.svc.DeleteBug(context.Background(), Actor{ID: "tester-1", Role: domain.RoleTester}, bug.ID); err != nil {
		t.Fatalf("reporter delete: %v", err)
	}
	if _, err := f.bugs.GetByID(context.Background(), bug.ID); err == nil {
		t.Error("bug should be gone")
	}
	if action, ok := f.activities.lastAction(); !ok || action != domain.ActionDelete {
		t.Errorf("expected a delete activity, got %q", action)
	}
}

func TestChangeStatusHappyPathAppendsActivity(t *testing.T) {
	f := newBugFixture(t, "tester-1", "dev-1")
	bug := f.seedBug(t, "tester-1", "dev-1")
	actor := Actor{ID: "dev-1", Role: domain.RoleDeveloper}

	updated, err := f.svc.ChangeStatus(context.Background(), actor, bug.ID, StatusChangeInput{
		From: domain.BugStatusOpen,
		To:   domain.BugStatusSolved,
		Note: "fixed rounding",
	})
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if updated.Status != domain.BugStatusSolved {
		t.Errorf("status = %s, want solved", updated.Status)
	}

	if len(f.activities.records) != 1 {
		t.Fatalf("want 1 activity, got %d", len(f.activities.records))
	}
	record := f.activities.records[0]
	if record.Action != domain.ActionStatusChange {
		t.Errorf("action = %s, want status_change", record.Action)
	}
	if record.From["status"] != "open" || record.To["status"] != "solved" {
		t.Errorf("activity snapshot = %v -> %v", record.From, record.To)
	}
	if record.Note != "fixed rounding" {
		t.Errorf("note = %q", record.Note)
	}
}

func TestChangeStatusStaleFromLeavesBugUntouched(t *testing.T) {
	f := newBugFixture(t, "tester-1")
	bug := f.seedBug(t, "tester-1")
	actor := Actor{ID: "tester-1", Role: domain.RoleTester}

	_, err := f.svc.ChangeStatus(context.Background(), actor, bug.ID, StatusChangeInput{
		From: domain.BugStatusSolved,
		To:   domain.BugStatusClosed,
	})
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("stale from should conflict, got %v", err)
	}

	stored, _ := f.bugs.GetByID(context.Background(), bug.ID)
	if stored.Status != domain.BugStatusOpen {
		t.Errorf("status mutated on conflict: %s", stored.Status)
	}
	if len(f.activities.records) != 0 {
		t.Error("no activity on a rejected change")
	}
}

// staleReadBugRepo serves every read from a fixed snapshot while writes hit
// the real store, reproducing two parallel handlers that both read the bug
// before either one wrote.
type staleReadBugRepo struct {
	*fakeBugRepo
	snapshot domain.Bug
}

func (r *staleReadBugRepo) GetByID(_ context.Context, id string) (*domain.Bug, error) {
	if id != r.snapshot.ID {
		return nil, pgx.ErrNoRows
	}
	clone := r.snapshot
	clone.Assignees = append([]string{}, r.snapshot.Assignees...)
	return &clone, nil
}

func TestChangeStatusConcurrentSameFromOneWins(t *testing.T) {
	f := newBugFixture(t, "tester-1", "dev-1")
	bug := f.seedBug(t, "tester-1", "dev-1")

	stale := &staleReadBugRepo{fakeBugRepo: f.bugs, snapshot: *bug}
	svc := NewBugService(BugDependencies{
		BugRepo:     stale,
		ModuleRepo:  f.modules,
		ProjectRepo: f.projects,
		Activities:  NewActivityService(f.activities, zap.NewNop()),
	})

	input := StatusChangeInput{From: domain.BugStatusOpen, To: domain.BugStatusSolved}
	actor := Actor{ID: "dev-1", Role: domain.RoleDeveloper}

	// Both requests saw status open; the second write must lose the swap.
	var rejections int
	for i := 0; i < 2; i++ {
		if _, err := svc.ChangeStatus(context.Background(), actor, bug.ID, input); err != nil {
			if !apperrors.IsCode(err, "CONFLICT") {
				t.Fatalf("loser should see a conflict, got %v", err)
			}
			rejections++
		}
	}
	if rejections != 1 {
		t.Fatalf("expected exactly one rejection, got %d", rejections)
	}

	stored, err := f.bugs.GetByID(context.Background(), bug.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.BugStatusSolved {
		t.Errorf("status = %s, want solved", stored.Status)
	}
	if len(f.activities.records) != 1 {
		t.Errorf("only the winner should append an activity, got %d", len(f.activities.records))
	}
}

func TestChangeStatusDeveloperCannotClose(t *testing.T) {
	f := newBugFixture(t, "tester-1", "dev-1")
	bug := f.seedBug(t, "tester-1", "dev-1")
	bug.Status = domain.BugStatusSolved
	if err := f.bugs.Update(context.Background(), bug); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.ChangeStatus(context.Background(), Actor{ID: "dev-1", Role: domain.RoleDeveloper}, bug.ID, StatusChangeInput{
		From: domain.BugStatusSolved,
		To:   domain.BugStatusClosed,
	})
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("developer close should be forbidden, got %v", err)
	}

	_, err = f.svc.ChangeStatus(context.Background(), Actor{ID: "dev-1", Role: domain.RoleDeveloper}, bug.ID, StatusChangeInput{
		From: domain.BugStatusSolved,
		To:   domain.BugStatusReopened,
	})
	if err != nil {
		t.Fatalf("developer assignee reopen should pass: %v", err)
	}
}

func TestGetBugViewGated(t *testing.T) {
	f := newBugFixture(t, "tester-1")
	bug := f.seedBug(t, "tester-1")

	_, err := f.svc.GetBug(context.Background(), Actor{ID: "dev-9", Role: domain.RoleDeveloper}, bug.ID)
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("non-member read should be forbidden, got %v", err)
	}
	if _, err := f.svc.GetBug(context.Background(), Actor{ID: "admin-1", Role: domain.RoleAdmin}, bug.ID); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func TestListActivitiesViewGated(t *testing.T) {
	f := newBugFixture(t, "tester-1")
	bug := f.seedBug(t, "tester-1")

	if _, err := f.svc.ChangeStatus(context.Background(), Actor{ID: "tester-1", Role: domain.RoleTester}, bug.ID, StatusChangeInput{
		From: domain.BugStatusOpen,
		To:   domain.BugStatusSolved,
	}); err != nil {
		t.Fatal(err)
	}

	acts, err := f.svc.ListActivities(context.Background(), Actor{ID: "tester-1", Role: domain.RoleTester}, bug.ID, 50, 0)
	if err != nil {
		t.Fatalf("ListActivities: %v", err)
	}
	if len(acts) != 1 {
		t.Errorf("want 1 activity, got %d", len(acts))
	}

	_, err = f.svc.ListActivities(context.Background(), Actor{ID: "dev-9", Role: domain.RoleDeveloper}, bug.ID, 50, 0)
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("non-member audit read should be forbidden, got %v", err)
	}
}

func TestListBugsMembershipGated(t *testing.T) {
	f := newBugFixture(t, "tester-1")
	f.seedBug(t, "tester-1")
	f.seedBug(t, "tester-1")

	bugs, total, err := f.svc.ListBugs(context.Background(), Actor{ID: "tester-1", Role: domain.RoleTester}, f.project.ID, BugListFilter{})
	if err != nil {
		t.Fatalf("ListBugs: %v", err)
	}
	if total != 2 || len(bugs) != 2 {
		t.Errorf("want 2 bugs, got %d (total %d)", len(bugs), total)
	}

	_, _, err = f.svc.ListBugs(context.Background(), Actor{ID: "dev-9", Role: domain.RoleDeveloper}, f.project.ID, BugListFilter{})
	if !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("non-member list should be forbidden, got %v", err)
	}
}
