package sla

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// DeadlineReport is the result of a single deadline computation.
type DeadlineReport struct {
	ResponseDeadline    time.Time
	ResolutionDeadline  time.Time
	WithinResponseSLA   bool
	WithinResolutionSLA bool
	ResponseRemaining   time.Duration
	ResolutionRemaining time.Duration
}

// ComputeDeadlines derives both deadlines and compliance state for a ticket
// from its policy snapshot. The function is pure: it never mutates the
// ticket and is safe to call concurrently for the same ticket.
//
// Deadlines start from the ticket's creation time, advance by the budget in
// working time, then shift later by the policy's accumulated paused
// duration (including a still-open pause window).
func ComputeDeadlines(t *domain.Ticket, now time.Time) DeadlineReport {
	policy := t.SLA
	paused := policy.PausedDuration(now)

	responseDeadline := DeadlineAfter(policy.Calendar, t.CreatedAt, policy.ResponseBudget).Add(paused)
	resolutionDeadline := DeadlineAfter(policy.Calendar, t.CreatedAt, policy.ResolutionBudget).Add(paused)

	report := DeadlineReport{
		ResponseDeadline:    responseDeadline,
		ResolutionDeadline:  resolutionDeadline,
		ResponseRemaining:   clamp(responseDeadline.Sub(now)),
		ResolutionRemaining: clamp(resolutionDeadline.Sub(now)),
	}

	if t.FirstResponseAt != nil {
		report.WithinResponseSLA = !t.FirstResponseAt.After(responseDeadline)
	} else {
		report.WithinResponseSLA = !now.After(responseDeadline)
	}

	if t.ResolvedAt != nil {
		report.WithinResolutionSLA = !t.ResolvedAt.After(resolutionDeadline)
	} else {
		report.WithinResolutionSLA = !now.After(resolutionDeadline)
	}
	return report
}

func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
