package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtrack-service/internal/auth"
	"github.com/spec-kit/bugtrack-service/internal/service"
	apperrors "github.com/spec-kit/bugtrack-service/pkg/util/errorutil"
)

func actorFromContext(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.Actor{ID: principal.ID(), Role: principal.Role()}, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

const maxPageSize = 100

// parsePagination maps page/limit query params onto offset/limit.
func parsePagination(c *fiber.Ctx) (limit, offset int) {
	return pagination(c.Query("page"), c.Query("limit"))
}

func pagination(pageStr, limitStr string) (limit, offset int) {
	page := parseInt(pageStr, 1)
	limit = parseInt(limitStr, 20)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset = (page - 1) * limit
	return limit, offset
}
