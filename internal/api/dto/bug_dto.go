package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/bugtrack-service/internal/domain"
	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

// CreateBugRequest payload.
type CreateBugRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Assignees   []string `json:"assignees"`
}

// Validate checks the creation payload shape.
func (r CreateBugRequest) Validate() error {
	if len(strings.TrimSpace(r.Title)) < 3 {
		return apperrors.NewValidationError("title must be at least 3 characters", map[string]any{"field": "title"})
	}
	return nil
}

// BugPatchRequest payload; at least one field must be present.
type BugPatchRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	ModuleID    *string  `json:"module_id"`
	Assignees   []string `json:"assignees"`
}

// Validate checks the patch payload shape.
func (r BugPatchRequest) Validate() error {
	if r.Title == nil && r.Description == nil && r.ModuleID == nil && r.Assignees == nil {
		return apperrors.NewValidationError("at least one field required", nil)
	}
	if r.Title != nil && len(strings.TrimSpace(*r.Title)) < 3 {
		return apperrors.NewValidationError("title must be at least 3 characters", map[string]any{"field": "title"})
	}
	return nil
}

// StatusChangeRequest carries the explicit from/to pair.
type StatusChangeRequest struct {
	From domain.BugStatus `json:"from"`
	To   domain.BugStatus `json:"to"`
	Note string           `json:"note"`
}

// Validate checks both endpoints name known statuses.
func (r StatusChangeRequest) Validate() error {
	if !r.From.Valid() {
		return apperrors.NewValidationError("unknown from status", map[string]any{"field": "from"})
	}
	if !r.To.Valid() {
		return apperrors.NewValidationError("unknown to status", map[string]any{"field": "to"})
	}
	return nil
}

// BugResponse projection.
type BugResponse struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"project_id"`
	ModuleID    string           `json:"module_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      domain.BugStatus `json:"status"`
	ReportedBy  string           `json:"reported_by"`
	Assignees   []string         `json:"assignees"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewBugResponse maps a domain bug.
func NewBugResponse(bug *domain.Bug) BugResponse {
	assignees := bug.Assignees
	if assignees == nil {
		assignees = []string{}
	}
	return BugResponse{
		ID:          bug.ID,
		ProjectID:   bug.ProjectID,
		ModuleID:    bug.ModuleID,
		Title:       bug.Title,
		Description: bug.Description,
		Status:      bug.Status,
		ReportedBy:  bug.ReportedBy,
		Assignees:   assignees,
		CreatedAt:   bug.CreatedAt,
		UpdatedAt:   bug.UpdatedAt,
	}
}

// ActivityResponse projection for audit entries.
type ActivityResponse struct {
	ID        string                `json:"id"`
	BugID     *string               `json:"bug_id,omitempty"`
	ModuleID  *string               `json:"module_id,omitempty"`
	ActorID   string                `json:"actor_id"`
	Action    domain.ActivityAction `json:"action"`
	From      map[string]any        `json:"from,omitempty"`
	To        map[string]any        `json:"to,omitempty"`
	Note      string                `json:"note,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// NewActivityResponse maps a domain activity.
func NewActivityResponse(activity *domain.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        activity.ID,
		BugID:     activity.BugID,
		ModuleID:  activity.ModuleID,
		ActorID:   activity.ActorID,
		Action:    activity.Action,
		From:      activity.From,
		To:        activity.To,
		Note:      activity.Note,
		CreatedAt: activity.CreatedAt,
	}
}
