package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/ticket-activity/internal/api/http/handlers"
	"github.com/spec-kit/ticket-activity/internal/auth"
	"github.com/spec-kit/ticket-activity/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Activity       *handlers.ActivityHandler
	Assignees      *handlers.AssigneeHandler
	Notifications  *handlers.NotificationHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	api.Get("/tickets/:ticketId/activity", cfg.Activity.ListByTicket)
	api.Post("/activity/lookup", cfg.Activity.Lookup)

	serviceOnly := auth.RequireRole(domain.RoleService)
	api.Post("/tickets/:ticketId/activity", serviceOnly, cfg.Activity.Record)
	api.Post("/tickets/:ticketId/assignees", serviceOnly, cfg.Assignees.Ensure)
	api.Post("/rooms/publish", serviceOnly, cfg.Notifications.Publish)
	api.Post("/teams/:teamId/bookmarks/created", serviceOnly, cfg.Notifications.BookmarkCreated)
	api.Post("/teams/:teamId/bookmarks/deleted", serviceOnly, cfg.Notifications.BookmarkDeleted)
}
