package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-dispatch/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-dispatch/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Agents         *handlers.AgentsHandler
	Customers      *handlers.CustomersHandler
	Tickets        *handlers.TicketsHandler
	Dispatch       *handlers.DispatchHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Dispatch.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	authed := func(handlers ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAgentType()}, handlers...)
	}
	superOnly := auth.RequireSuperAgent()

	app.Get("/agents", authed(cfg.Agents.ListAgents)...)
	app.Get("/agents/:id", authed(cfg.Agents.GetAgent)...)
	app.Post("/agents", authed(superOnly, cfg.Agents.CreateAgent)...)
	app.Patch("/agents/:id", authed(superOnly, cfg.Agents.UpdateAgent)...)

	app.Get("/customers", authed(cfg.Customers.ListCustomers)...)
	app.Get("/customers/:id", authed(cfg.Customers.GetCustomer)...)
	app.Post("/customers", authed(cfg.Customers.CreateCustomer)...)

	app.Get("/tickets", authed(cfg.Tickets.ListTickets)...)
	app.Get("/tickets/:id", authed(cfg.Tickets.GetTicket)...)
	app.Post("/tickets", authed(cfg.Tickets.CreateTicket)...)
	app.Patch("/tickets/:id", authed(cfg.Tickets.UpdateTicket)...)
	app.Delete("/tickets/:id", authed(superOnly, cfg.Tickets.DeleteTicket)...)

	app.Get("/changes", authed(cfg.Tickets.ListChanges)...)

	app.Get("/dispatch/status", authed(cfg.Dispatch.Status)...)
	app.Get("/dispatch/events", authed(cfg.Dispatch.ListEvents)...)
	app.Get("/dispatch/feed", authed(cfg.Dispatch.Feed)...)
	app.Post("/dispatch/activations", authed(superOnly, cfg.Dispatch.Activate)...)
}
