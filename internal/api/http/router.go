package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bridge/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bridge/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Staff          *handlers.StaffHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireStaff())
	api.Get("/me", cfg.Staff.Me)
	api.Get("/categories", cfg.Staff.ListCategories)
	api.Get("/tags", cfg.Staff.ListTags)
	api.Get("/warnings", cfg.Staff.ListWarnings)
	api.Get("/metrics", cfg.Staff.Metrics)

	tickets := api.Group("/tickets")
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/messages", cfg.Tickets.ListMessages)
	tickets.Post("/:id/reply", cfg.Tickets.Reply)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/close", cfg.Tickets.Close)
	tickets.Post("/:id/tags", cfg.Tickets.ToggleTag)
}
