package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventSLAWarning          EventType = "sla_warning"
)

// SLAWarningKind distinguishes which deadline is at risk.
type SLAWarningKind string

const (
	WarningResponse   SLAWarningKind = "response"
	WarningResolution SLAWarningKind = "resolution"
)

// Actor encapsulates actor metadata for an event. System events (the
// breach sweep) carry neither a user nor a staff id.
type Actor struct {
	Type    domain.ActorType `json:"type"`
	UserID  *string          `json:"user_id,omitempty"`
	StaffID *string          `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ExternalKey  string                `json:"external_key"`
	DepartmentID string                `json:"department_id"`
	Category     string                `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reason    string              `json:"reason,omitempty"`
}

// TicketEscalatedPayload carries the new escalation rung and the recipient
// the escalation notification is addressed to.
type TicketEscalatedPayload struct {
	Level     int    `json:"level"`
	Recipient string `json:"recipient"`
	Initiator string `json:"initiator"`
	Reason    string `json:"reason"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// SLAWarningPayload payload for both warning kinds.
type SLAWarningPayload struct {
	Kind      SLAWarningKind `json:"kind"`
	Deadline  time.Time      `json:"deadline"`
	Remaining time.Duration  `json:"remaining"`
}
