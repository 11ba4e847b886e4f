package service

import (
	"testing"

	"github.com/spec-kit/bugtrack-service/internal/domain"
)

func testProject(members ...string) *domain.Project {
	return &domain.Project{
		ID:      "project-1",
		Name:    "billing",
		Members: members,
		Status:  domain.ProjectStatusActive,
	}
}

func TestCanViewProject(t *testing.T) {
	project := testProject("dev-1", "tester-1")

	cases := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin non-member", Actor{ID: "admin-1", Role: domain.RoleAdmin}, true},
		{"developer member", Actor{ID: "dev-1", Role: domain.RoleDeveloper}, true},
		{"tester member", Actor{ID: "tester-1", Role: domain.RoleTester}, true},
		{"tester non-member", Actor{ID: "tester-2", Role: domain.RoleTester}, false},
		{"developer non-member", Actor{ID: "dev-2", Role: domain.RoleDeveloper}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canViewProject(tc.actor, project); got != tc.want {
				t.Errorf("canViewProject = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanCreateModule(t *testing.T) {
	project := testProject("dev-1", "tester-1")

	cases := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin anywhere", Actor{ID: "admin-1", Role: domain.RoleAdmin}, true},
		{"tester member", Actor{ID: "tester-1", Role: domain.RoleTester}, true},
		{"tester non-member", Actor{ID: "tester-2", Role: domain.RoleTester}, false},
		{"developer member", Actor{ID: "dev-1", Role: domain.RoleDeveloper}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canCreateModule(tc.actor, project); got != tc.want {
				t.Errorf("canCreateModule = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanCreateBug(t *testing.T) {
	project := testProject("dev-1", "tester-1")

	if !canCreateBug(Actor{ID: "tester-1", Role: domain.RoleTester}, project) {
		t.Error("tester member should be able to report bugs")
	}
	if canCreateBug(Actor{ID: "dev-1", Role: domain.RoleDeveloper}, project) {
		t.Error("developers never report bugs")
	}
	if canCreateBug(Actor{ID: "tester-2", Role: domain.RoleTester}, project) {
		t.Error("non-member tester should not report bugs here")
	}
	if !canCreateBug(Actor{ID: "admin-1", Role: domain.RoleAdmin}, project) {
		t.Error("admin should report bugs anywhere")
	}
}

func TestCanEditBug(t *testing.T) {
	bug := &domain.Bug{
		ID:         "bug-1",
		ReportedBy: "tester-1",
		Assignees:  []string{"dev-1"},
	}

	if !canEditBug(Actor{ID: "tester-1", Role: domain.RoleTester}, bug) {
		t.Error("reporter should edit")
	}
	if !canEditBug(Actor{ID: "dev-1", Role: domain.RoleDeveloper}, bug) {
		t.Error("assignee should edit")
	}
	if !canEditBug(Actor{ID: "admin-1", Role: domain.RoleAdmin}, bug) {
		t.Error("admin should edit")
	}
	if canEditBug(Actor{ID: "dev-2", Role: domain.RoleDeveloper}, bug) {
		t.Error("unrelated user should not edit")
	}
}

func TestCanEditAssigneesWiderThanEdit(t *testing.T) {
	project := testProject("tester-2", "dev-1")
	bug := &domain.Bug{
		ID:         "bug-1",
		ProjectID:  project.ID,
		ReportedBy: "tester-1",
		Assignees:  []string{"dev-1"},
	}

	// tester-2 is neither reporter nor assignee but is a project member.
	if !canEditAssignees(Actor{ID: "tester-2", Role: domain.RoleTester}, bug, project) {
		t.Error("member tester should be able to reassign")
	}
	// a developer in the same position cannot.
	if canEditAssignees(Actor{ID: "dev-2", Role: domain.RoleDeveloper}, bug, project) {
		t.Error("unrelated developer should not reassign")
	}
	// reporter and assignee keep their edit rights.
	if !canEditAssignees(Actor{ID: "tester-1", Role: domain.RoleTester}, bug, project) {
		t.Error("reporter should reassign")
	}
	if !canEditAssignees(Actor{ID: "dev-1", Role: domain.RoleDeveloper}, bug, project) {
		t.Error("assignee should reassign")
	}
}

func TestCanDeleteBug(t *testing.T) {
	bug := &domain.Bug{
		ID:         "bug-1",
		ReportedBy: "tester-1",
		Assignees:  []string{"dev-1"},
	}

	if !canDeleteBug(Actor{ID: "tester-1", Role: domain.RoleTester}, bug) {
		t.Error("reporter should delete")
	}
	if canDeleteBug(Actor{ID: "dev-1", Role: domain.RoleDeveloper}, bug) {
		t.Error("assignee alone should not delete")
	}
	if !canDeleteBug(Actor{ID: "admin-1", Role: domain.RoleAdmin}, bug) {
		t.Error("admin should delete")
	}
}

func TestAssigneesWithinMembers(t *testing.T) {
	project := testProject("dev-1", "dev-2")

	if outside := assigneesWithinMembers(project, []string{"dev-1", "dev-2"}); len(outside) != 0 {
		t.Errorf("expected no offenders, got %v", outside)
	}
	outside := assigneesWithinMembers(project, []string{"dev-1", "dev-3", "dev-4"})
	if len(outside) != 2 || outside[0] != "dev-3" || outside[1] != "dev-4" {
		t.Errorf("expected [dev-3 dev-4], got %v", outside)
	}
	if outside := assigneesWithinMembers(project, nil); len(outside) != 0 {
		t.Errorf("empty assignees should pass, got %v", outside)
	}
}

func TestPatchMemberSet(t *testing.T) {
	got := patchMemberSet([]string{"a", "b", "c"}, []string{"b", "d"}, []string{"a"})
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("patchMemberSet = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("patchMemberSet = %v, want %v", got, want)
		}
	}
}

func TestPatchMemberSetRemoveWinsOverAdd(t *testing.T) {
	got := patchMemberSet([]string{"a"}, []string{"b"}, []string{"b"})
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("remove should win over add in the same patch, got %v", got)
	}
}
