package domain

import "time"

// ActorType indicates who performed a recorded change.
type ActorType string

const (
	ActorTypeUser   ActorType = "USER"
	ActorTypeStaff  ActorType = "STAFF"
	ActorTypeSystem ActorType = "SYSTEM"
)

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus     TicketChangeType = "STATUS_CHANGE"
	ChangeTypeEscalation TicketChangeType = "ESCALATION"
	ChangeTypeAssignee   TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypeResponse   TicketChangeType = "RESPONSE_RECORDED"
	ChangeTypeSLAPause   TicketChangeType = "SLA_PAUSE"
	ChangeTypeSLAResume  TicketChangeType = "SLA_RESUME"
)

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByType ActorType
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
