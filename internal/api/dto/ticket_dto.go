package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/sla"
)

// CreateTicketRequest payload. Department, category, and default priority
// come from the classifier, not the caller.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority,omitempty"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
	Reason string              `json:"reason,omitempty"`
}

// AssignTicketRequest payload. A nil assignee clears the assignment.
type AssignTicketRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// PauseSLARequest payload.
type PauseSLARequest struct {
	Reason string `json:"reason"`
}

// EscalationRecordResponse mirrors a single audit record.
type EscalationRecordResponse struct {
	Level     int       `json:"level"`
	Recipient string    `json:"recipient"`
	Initiator string    `json:"initiator"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID              string                     `json:"id"`
	ExternalKey     string                     `json:"external_key"`
	DepartmentID    string                     `json:"department_id"`
	AssigneeID      *string                    `json:"assignee_id,omitempty"`
	Title           string                     `json:"title"`
	Description     string                     `json:"description"`
	Category        string                     `json:"category"`
	Status          domain.TicketStatus        `json:"status"`
	Priority        domain.TicketPriority      `json:"priority"`
	EscalationLevel int                        `json:"escalation_level"`
	Escalations     []EscalationRecordResponse `json:"escalations,omitempty"`
	FirstResponseAt *time.Time                 `json:"first_response_at,omitempty"`
	ResolvedAt      *time.Time                 `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time                 `json:"closed_at,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// SLAReportResponse exposes computed deadlines and compliance.
type SLAReportResponse struct {
	TicketID                   string    `json:"ticket_id"`
	ResponseDeadline           time.Time `json:"response_deadline"`
	ResolutionDeadline         time.Time `json:"resolution_deadline"`
	WithinResponseSLA          bool      `json:"within_response_sla"`
	WithinResolutionSLA        bool      `json:"within_resolution_sla"`
	ResponseRemainingSeconds   int64     `json:"response_remaining_seconds"`
	ResolutionRemainingSeconds int64     `json:"resolution_remaining_seconds"`
	Paused                     bool      `json:"paused"`
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:              t.ID,
		ExternalKey:     t.ExternalKey,
		DepartmentID:    t.DepartmentID,
		AssigneeID:      t.AssigneeID,
		Title:           t.Title,
		Description:     t.Description,
		Category:        t.Category,
		Status:          t.Status,
		Priority:        t.Priority,
		EscalationLevel: t.EscalationLevel,
		FirstResponseAt: t.FirstResponseAt,
		ResolvedAt:      t.ResolvedAt,
		ClosedAt:        t.ClosedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	for _, record := range t.Escalations {
		resp.Escalations = append(resp.Escalations, EscalationRecordResponse{
			Level:     record.Level,
			Recipient: record.Recipient,
			Initiator: record.Initiator,
			Reason:    record.Reason,
			CreatedAt: record.CreatedAt,
		})
	}
	return resp
}

// FromSLAReport maps a deadline report to its response shape.
func FromSLAReport(t *domain.Ticket, report sla.DeadlineReport) SLAReportResponse {
	return SLAReportResponse{
		TicketID:                   t.ID,
		ResponseDeadline:           report.ResponseDeadline,
		ResolutionDeadline:         report.ResolutionDeadline,
		WithinResponseSLA:          report.WithinResponseSLA,
		WithinResolutionSLA:        report.WithinResolutionSLA,
		ResponseRemainingSeconds:   int64(report.ResponseRemaining.Seconds()),
		ResolutionRemainingSeconds: int64(report.ResolutionRemaining.Seconds()),
		Paused:                     t.SLA.Paused,
	}
}
