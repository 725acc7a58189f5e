package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// UpsertPolicyRequest payload. Budgets are whole minutes.
type UpsertPolicyRequest struct {
	ResponseMinutes   int    `json:"response_minutes"`
	ResolutionMinutes int    `json:"resolution_minutes"`
	CalendarName      string `json:"calendar_name,omitempty"`
}

// PolicyResponse exposes a department SLA policy.
type PolicyResponse struct {
	DepartmentID      string `json:"department_id"`
	ResponseMinutes   int    `json:"response_minutes"`
	ResolutionMinutes int    `json:"resolution_minutes"`
	CalendarName      string `json:"calendar_name,omitempty"`
}

// FromPolicy maps a domain policy to its response shape.
func FromPolicy(p *domain.SLAPolicy) PolicyResponse {
	return PolicyResponse{
		DepartmentID:      p.DepartmentID,
		ResponseMinutes:   int(p.ResponseBudget / time.Minute),
		ResolutionMinutes: int(p.ResolutionBudget / time.Minute),
		CalendarName:      p.CalendarName,
	}
}
