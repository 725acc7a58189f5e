package domain

import (
	"errors"
	"time"
)

// SLAPolicy defines the two-tier deadline model for a department: a
// first-response budget and a resolution budget, both measured in working
// time when a calendar is attached and in wall-clock time otherwise.
//
// A copy of the policy is embedded in every ticket at creation time, so
// pause state accumulates per ticket, not per department.
type SLAPolicy struct {
	DepartmentID     string        `json:"department_id"`
	ResponseBudget   time.Duration `json:"response_budget"`
	ResolutionBudget time.Duration `json:"resolution_budget"`
	CalendarName     string        `json:"calendar_name,omitempty"`
	Calendar         *WorkCalendar `json:"calendar,omitempty"`
	Paused           bool          `json:"paused"`
	PausedAt         *time.Time    `json:"paused_at,omitempty"`
	PausedTotal      time.Duration `json:"paused_total"`
}

// ErrAlreadyPaused and ErrNotPaused guard the pause/resume pair.
var (
	ErrAlreadyPaused = errors.New("sla policy already paused")
	ErrNotPaused     = errors.New("sla policy is not paused")
)

// Pause stops the SLA clock at now.
func (p *SLAPolicy) Pause(now time.Time) error {
	if p.Paused {
		return ErrAlreadyPaused
	}
	p.Paused = true
	p.PausedAt = &now
	return nil
}

// Resume restarts the SLA clock, folding the elapsed pause window into
// PausedTotal. PausedTotal never decreases.
func (p *SLAPolicy) Resume(now time.Time) error {
	if !p.Paused || p.PausedAt == nil {
		return ErrNotPaused
	}
	if elapsed := now.Sub(*p.PausedAt); elapsed > 0 {
		p.PausedTotal += elapsed
	}
	p.Paused = false
	p.PausedAt = nil
	return nil
}

// PausedDuration returns the total paused time as of now, including the
// still-open pause window when the policy is currently paused.
func (p *SLAPolicy) PausedDuration(now time.Time) time.Duration {
	total := p.PausedTotal
	if p.Paused && p.PausedAt != nil {
		if live := now.Sub(*p.PausedAt); live > 0 {
			total += live
		}
	}
	return total
}
