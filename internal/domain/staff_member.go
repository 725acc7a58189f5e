package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAgent    StaffRole = "AGENT"
	StaffRoleTeamLead StaffRole = "TEAM_LEAD"
	StaffRoleManager  StaffRole = "MANAGER"
	StaffRoleAdmin    StaffRole = "ADMIN"
)

// StaffMember models a support agent, manager, or administrator. Escalation
// ladder rungs name staff members (or role aliases) as recipients.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
