package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/bugtrack-service/internal/api/http/handlers"
	"github.com/spec-kit/bugtrack-service/internal/auth"
	"github.com/spec-kit/bugtrack-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Projects       *handlers.ProjectsHandler
	Modules        *handlers.ModulesHandler
	Bugs           *handlers.BugsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Role guards at the edge mirror the
// coarse route-level policy; membership and per-resource rules live in the
// services.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)
	app.Post("/auth/register", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Auth.Register)

	anyRole := auth.RequireRole(domain.RoleAdmin, domain.RoleTester, domain.RoleDeveloper)

	users := app.Group("/users", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	users.Get("/", cfg.Users.ListUsers)
	users.Post("/", cfg.Users.CreateUser)
	users.Get("/:id", cfg.Users.GetUser)
	users.Patch("/:id", cfg.Users.PatchUser)
	users.Delete("/:id", cfg.Users.DeleteUser)

	projects := app.Group("/projects", cfg.AuthMiddleware.Handle)
	projects.Get("/my-projects", anyRole, cfg.Projects.ListAssigned)
	projects.Get("/", auth.RequireAdmin(), cfg.Projects.ListProjects)
	projects.Post("/", auth.RequireAdmin(), cfg.Projects.CreateProject)
	projects.Get("/:id", anyRole, cfg.Projects.GetProject)
	projects.Patch("/:id", auth.RequireAdmin(), cfg.Projects.PatchProject)
	projects.Delete("/:id", auth.RequireAdmin(), cfg.Projects.DeleteProject)
	projects.Patch("/:id/members", auth.RequireAdmin(), cfg.Projects.PatchMembers)

	projects.Get("/:projectId/modules", anyRole, cfg.Modules.ListModules)
	projects.Post("/:projectId/modules", auth.RequireRole(domain.RoleAdmin, domain.RoleTester), cfg.Modules.CreateModule)
	projects.Get("/:projectId/bugs", anyRole, cfg.Bugs.ListProjectBugs)

	modules := app.Group("/modules", cfg.AuthMiddleware.Handle)
	modules.Get("/my-modules", anyRole, cfg.Modules.ListMine)
	modules.Get("/:moduleId/bugs", anyRole, cfg.Bugs.ListModuleBugs)
	modules.Post("/:moduleId/bugs", auth.RequireRole(domain.RoleAdmin, domain.RoleTester), cfg.Bugs.CreateBug)

	bugs := app.Group("/bugs", cfg.AuthMiddleware.Handle, anyRole)
	bugs.Get("/:id", cfg.Bugs.GetBug)
	bugs.Patch("/:id", cfg.Bugs.PatchBug)
	bugs.Delete("/:id", cfg.Bugs.DeleteBug)
	bugs.Patch("/:id/status", cfg.Bugs.ChangeStatus)
	bugs.Get("/:id/activities", cfg.Bugs.ListActivities)
}
