package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusEscalated  TicketStatus = "ESCALATED"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// IsTerminal reports whether a status admits no further transitions.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed || s == TicketStatusCancelled
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for complaints and support requests.
//
// SLA carries a snapshot of the department policy taken at creation time;
// later changes to the department-wide policy never move deadlines for
// tickets that already exist.
type Ticket struct {
	ID              string
	ExternalKey     string
	Sequence        int64
	RequesterID     string
	DepartmentID    string
	AssigneeID      *string
	Title           string
	Description     string
	Category        string
	Status          TicketStatus
	Priority        TicketPriority
	EscalationLevel int
	Escalations     []EscalationRecord
	SLA             SLAPolicy
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsEscalated reports whether the ticket currently sits at an escalation
// rung. The breach sweep uses this as its sole re-escalation guard.
func (t *Ticket) IsEscalated() bool {
	return t.Status == TicketStatusEscalated
}
