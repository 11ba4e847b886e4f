package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/bugtrack-service/internal/domain"
	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

// RegisterRequest payload (admin-only route).
type RegisterRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// Validate checks the registration payload shape.
func (r RegisterRequest) Validate() error {
	if !strings.Contains(r.Email, "@") {
		return apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	if len(r.Password) < 6 {
		return apperrors.NewValidationError("password must be at least 6 characters", map[string]any{"field": "password"})
	}
	if !r.Role.Valid() {
		return apperrors.NewValidationError("role must be admin, tester or developer", map[string]any{"field": "role"})
	}
	return nil
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login payload shape.
func (r LoginRequest) Validate() error {
	if r.Email == "" {
		return apperrors.NewValidationError("email required", map[string]any{"field": "email"})
	}
	if r.Password == "" {
		return apperrors.NewValidationError("password required", map[string]any{"field": "password"})
	}
	return nil
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string      `json:"access_token"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// UserPatchRequest payload for admin role/active toggles.
type UserPatchRequest struct {
	Role     *domain.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
}

// UserResponse is the password-free user projection.
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
