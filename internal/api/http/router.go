package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lead-router/internal/api/http/handlers"
	"github.com/spec-kit/lead-router/internal/auth"
	"github.com/spec-kit/lead-router/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Leads          *handlers.LeadsHandler
	Agents         *handlers.AgentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Intake authenticates with the
// organization's webhook secret; everything else needs an operator token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/webhooks/leads/:orgId", cfg.AuthMiddleware.WebhookHandle, cfg.Leads.Intake)

	leads := app.Group("/leads", cfg.AuthMiddleware.Handle, auth.RequireRole())
	leads.Post("/:id/assign", cfg.Leads.Assign)
	leads.Post("/:id/contact", cfg.Leads.Contact)
	leads.Post("/:id/escalate", cfg.Leads.Escalate)
	leads.Post("/:id/close", cfg.Leads.Close)
	leads.Get("/:id/events", cfg.Leads.Timeline)

	orgs := app.Group("/orgs", cfg.AuthMiddleware.Handle, auth.RequireRole())
	orgs.Get("/:orgId/leads", cfg.Leads.List)
	orgs.Get("/:orgId/leads/overdue", cfg.Leads.ListOverdue)
	orgs.Get("/:orgId/stats", cfg.Leads.Stats)
	orgs.Get("/:orgId/agents", cfg.Agents.ListByOrganization)
	orgs.Post("/:orgId/agents", auth.RequireRole(domain.OperatorRoleAdmin), cfg.Agents.Create)

	agents := app.Group("/agents", cfg.AuthMiddleware.Handle, auth.RequireRole())
	agents.Patch("/:id/availability", cfg.Agents.SetAvailability)
}
