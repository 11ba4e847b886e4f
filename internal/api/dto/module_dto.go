package dto

import (
	"strings"
	"time"

	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

// CreateModuleRequest payload.
type CreateModuleRequest struct {
	Name string `json:"name"`
}

// Validate checks the creation payload shape.
func (r CreateModuleRequest) Validate() error {
	name := strings.TrimSpace(r.Name)
	if len(name) < 2 || len(name) > 200 {
		return apperrors.NewValidationError("name must be between 2 and 200 characters", map[string]any{"field": "name"})
	}
	return nil
}

// ModuleProjectRef is the trimmed project reference in module listings.
type ModuleProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ModuleResponse projection.
type ModuleResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Project   *ModuleProjectRef `json:"project,omitempty"`
	CreatedBy string            `json:"created_by"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
