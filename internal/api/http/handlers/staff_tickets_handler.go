package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// StaffTicketsHandler manages staff-facing ticket endpoints.
type StaffTicketsHandler struct {
	tickets     *service.TicketService
	escalations *service.EscalationService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService, escalationService *service.EscalationService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService, escalations: escalationService}
}

// ListTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	filter := parseStaffTicketQuery(c)
	tickets, err := h.tickets.ListStaffTickets(c.Context(), principal.Staff, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /staff/tickets/:id.
func (h *StaffTicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	ticket, err := h.tickets.GetTicketForStaff(c.Context(), principal.Staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// GetTicketByKey GET /staff/tickets/key/:key.
func (h *StaffTicketsHandler) GetTicketByKey(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	ticket, err := h.tickets.GetTicketByKeyForStaff(c.Context(), principal.Staff, c.Params("key"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// UpdateStatus PATCH /staff/tickets/:id/status.
func (h *StaffTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	staffID := principal.Staff.ID
	ticket, err := h.tickets.Transition(c.Context(), domain.ActorTypeStaff, &staffID, c.Params("id"), req.Status, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Assign PATCH /staff/tickets/:id/assignee.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.AssignTicket(c.Context(), principal.Staff.ID, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Escalate POST /staff/tickets/:id/escalate.
func (h *StaffTicketsHandler) Escalate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}

	ticket, err := h.escalations.Escalate(c.Context(), c.Params("id"), principal.Staff.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// RecordResponse POST /staff/tickets/:id/response.
func (h *StaffTicketsHandler) RecordResponse(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	ticket, err := h.tickets.RecordResponse(c.Context(), principal.Staff.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// PauseSLA POST /staff/tickets/:id/sla/pause.
func (h *StaffTicketsHandler) PauseSLA(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.PauseSLARequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.PauseSLA(c.Context(), principal.Staff.ID, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// ResumeSLA POST /staff/tickets/:id/sla/resume.
func (h *StaffTicketsHandler) ResumeSLA(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	ticket, err := h.tickets.ResumeSLA(c.Context(), principal.Staff.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// SLAReport GET /staff/tickets/:id/sla.
func (h *StaffTicketsHandler) SLAReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	ticket, report, err := h.tickets.SLAReport(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromSLAReport(ticket, report)})
}

// History GET /staff/tickets/:id/history.
func (h *StaffTicketsHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	limit, offset := parsePagination(c)
	entries, err := h.tickets.ListHistory(c.Context(), principal.Staff, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]fiber.Map, 0, len(entries))
	for _, entry := range entries {
		items = append(items, fiber.Map{
			"id":              entry.ID,
			"ticket_id":       entry.TicketID,
			"changed_by_type": entry.ChangedByType,
			"changed_by_id":   entry.ChangedByID,
			"change_type":     entry.ChangeType,
			"old_value":       entry.OldValue,
			"new_value":       entry.NewValue,
			"created_at":      entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseStaffTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	filter.Limit, filter.Offset = parsePagination(c)

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part)))
			if status != "" {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if raw := c.Query("priority"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			priority := domain.TicketPriority(strings.ToUpper(strings.TrimSpace(part)))
			if priority != "" {
				filter.Priorities = append(filter.Priorities, priority)
			}
		}
	}
	if raw := c.Query("assignee_id"); raw != "" {
		filter.AssigneeID = &raw
	}
	if raw := c.Query("search"); raw != "" {
		filter.SearchTerm = &raw
	}
	if raw := c.Query("created_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedFrom = &t
		}
	}
	if raw := c.Query("created_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedTo = &t
		}
	}
	return filter
}
