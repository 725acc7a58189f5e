package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Policies       *handlers.PoliciesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/staff/register",
		cfg.AuthMiddleware.Handle,
		auth.RequireStaffRole(domain.StaffRoleAdmin),
		cfg.Staff.Register)

	userTickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireUser())
	userTickets.Post("", cfg.Tickets.CreateTicket)
	userTickets.Get("", cfg.Tickets.ListTickets)
	userTickets.Get("/:id", cfg.Tickets.GetTicket)
	userTickets.Post("/:id/close", cfg.Tickets.CloseTicket)

	staffTickets := app.Group("/staff/tickets", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	staffTickets.Get("", cfg.StaffTickets.ListTickets)
	staffTickets.Get("/key/:key", cfg.StaffTickets.GetTicketByKey)
	staffTickets.Get("/:id", cfg.StaffTickets.GetTicket)
	staffTickets.Get("/:id/sla", cfg.StaffTickets.SLAReport)
	staffTickets.Get("/:id/history", cfg.StaffTickets.History)
	staffTickets.Patch("/:id/status", cfg.StaffTickets.UpdateStatus)
	staffTickets.Patch("/:id/assignee", cfg.StaffTickets.Assign)
	staffTickets.Post("/:id/response", cfg.StaffTickets.RecordResponse)

	// Escalation and SLA clock control are restricted to senior roles.
	senior := auth.RequireStaffRole(domain.StaffRoleTeamLead, domain.StaffRoleManager, domain.StaffRoleAdmin)
	staffTickets.Post("/:id/escalate", senior, cfg.StaffTickets.Escalate)
	staffTickets.Post("/:id/sla/pause", senior, cfg.StaffTickets.PauseSLA)
	staffTickets.Post("/:id/sla/resume", senior, cfg.StaffTickets.ResumeSLA)

	policies := app.Group("/staff/policies", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	policies.Get("", cfg.Policies.List)
	policies.Get("/:department", cfg.Policies.Get)
	policies.Put("/:department",
		auth.RequireStaffRole(domain.StaffRoleManager, domain.StaffRoleAdmin),
		cfg.Policies.Upsert)
}
