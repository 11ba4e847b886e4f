package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/bugtrack-service/internal/domain"
	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

// CreateProjectRequest payload.
type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
}

// Validate checks the creation payload shape.
func (r CreateProjectRequest) Validate() error {
	if len(strings.TrimSpace(r.Name)) < 2 {
		return apperrors.NewValidationError("name must be at least 2 characters", map[string]any{"field": "name"})
	}
	return nil
}

// ProjectPatchRequest payload.
type ProjectPatchRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Status      *domain.ProjectStatus `json:"status"`
}

// Validate checks the patch payload shape.
func (r ProjectPatchRequest) Validate() error {
	if r.Name != nil && len(strings.TrimSpace(*r.Name)) < 2 {
		return apperrors.NewValidationError("name must be at least 2 characters", map[string]any{"field": "name"})
	}
	if r.Status != nil && *r.Status != domain.ProjectStatusActive && *r.Status != domain.ProjectStatusArchived {
		return apperrors.NewValidationError("status must be active or archived", map[string]any{"field": "status"})
	}
	return nil
}

// MemberPatchRequest payload for membership edits.
type MemberPatchRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

// Validate requires at least one of add or remove.
func (r MemberPatchRequest) Validate() error {
	if len(r.Add) == 0 && len(r.Remove) == 0 {
		return apperrors.NewValidationError("add or remove required", nil)
	}
	return nil
}

// ProjectResponse projection.
type ProjectResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Members     []string             `json:"members"`
	Status      domain.ProjectStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewProjectResponse maps a domain project.
func NewProjectResponse(project *domain.Project) ProjectResponse {
	members := project.Members
	if members == nil {
		members = []string{}
	}
	return ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Members:     members,
		Status:      project.Status,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}
