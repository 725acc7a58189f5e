package sla

import (
	"testing"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func naiveTicket(created time.Time) *domain.Ticket {
	return &domain.Ticket{
		ID:        "t-1",
		Status:    domain.TicketStatusOpen,
		CreatedAt: created,
		SLA: domain.SLAPolicy{
			DepartmentID:     "general",
			ResponseBudget:   4 * time.Hour,
			ResolutionBudget: 24 * time.Hour,
		},
	}
}

func TestComputeDeadlinesNaive(t *testing.T) {
	created := mustTime(t, "2026-03-02T10:00:00Z")
	ticket := naiveTicket(created)
	now := created.Add(time.Hour)

	report := ComputeDeadlines(ticket, now)

	if want := created.Add(4 * time.Hour); !report.ResponseDeadline.Equal(want) {
		t.Fatalf("response deadline = %v, want %v", report.ResponseDeadline, want)
	}
	if want := created.Add(24 * time.Hour); !report.ResolutionDeadline.Equal(want) {
		t.Fatalf("resolution deadline = %v, want %v", report.ResolutionDeadline, want)
	}
	if !report.WithinResponseSLA || !report.WithinResolutionSLA {
		t.Fatal("ticket should be within both SLAs one hour in")
	}
	if report.ResponseRemaining != 3*time.Hour {
		t.Fatalf("response remaining = %v, want 3h", report.ResponseRemaining)
	}
	if report.ResolutionRemaining != 23*time.Hour {
		t.Fatalf("resolution remaining = %v, want 23h", report.ResolutionRemaining)
	}
}

func TestComputeDeadlinesBreached(t *testing.T) {
	created := mustTime(t, "2026-03-02T10:00:00Z")
	ticket := naiveTicket(created)
	now := created.Add(25 * time.Hour)

	report := ComputeDeadlines(ticket, now)

	if report.WithinResponseSLA {
		t.Fatal("response SLA should be breached with no recorded response")
	}
	if report.WithinResolutionSLA {
		t.Fatal("resolution SLA should be breached after 25h")
	}
	if report.ResponseRemaining != 0 || report.ResolutionRemaining != 0 {
		t.Fatalf("remaining should clamp to zero, got %v / %v",
			report.ResponseRemaining, report.ResolutionRemaining)
	}
}

func TestComputeDeadlinesPauseShiftsDeadlines(t *testing.T) {
	created := mustTime(t, "2026-03-02T10:00:00Z")
	ticket := naiveTicket(created)

	pausedAt := created.Add(time.Hour)
	if err := ticket.SLA.Pause(pausedAt); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := ticket.SLA.Resume(pausedAt.Add(2 * time.Hour)); err != nil {
		t.Fatalf("resume: %v", err)
	}

	report := ComputeDeadlines(ticket, created.Add(4*time.Hour))

	if want := created.Add(6 * time.Hour); !report.ResponseDeadline.Equal(want) {
		t.Fatalf("response deadline = %v, want %v (shifted by 2h pause)", report.ResponseDeadline, want)
	}
	if want := created.Add(26 * time.Hour); !report.ResolutionDeadline.Equal(want) {
		t.Fatalf("resolution deadline = %v, want %v (shifted by 2h pause)", report.ResolutionDeadline, want)
	}
	if !report.WithinResponseSLA {
		t.Fatal("pause should keep the ticket inside the response SLA")
	}
}

func TestComputeDeadlinesLivePauseWindowCounts(t *testing.T) {
	created := mustTime(t, "2026-03-02T10:00:00Z")
	ticket := naiveTicket(created)

	if err := ticket.SLA.Pause(created.Add(time.Hour)); err != nil {
		t.Fatalf("pause: %v", err)
	}

	// Three hours into an open pause window the deadline has drifted by
	// the same three hours: remaining time is frozen.
	report := ComputeDeadlines(ticket, created.Add(4*time.Hour))

	if want := created.Add(7 * time.Hour); !report.ResponseDeadline.Equal(want) {
		t.Fatalf("response deadline = %v, want %v", report.ResponseDeadline, want)
	}
	if report.ResponseRemaining != 3*time.Hour {
		t.Fatalf("response remaining = %v, want frozen 3h", report.ResponseRemaining)
	}
}

func TestComputeDeadlinesUsesRecordedTimestamps(t *testing.T) {
	created := mustTime(t, "2026-03-02T10:00:00Z")
	now := created.Add(48 * time.Hour)

	ticket := naiveTicket(created)
	responded := created.Add(time.Hour)
	resolved := created.Add(20 * time.Hour)
	ticket.FirstResponseAt = &responded
	ticket.ResolvedAt = &resolved

	report := ComputeDeadlines(ticket, now)
	if !report.WithinResponseSLA {
		t.Fatal("response recorded inside budget should stay compliant forever")
	}
	if !report.WithinResolutionSLA {
		t.Fatal("resolution recorded inside budget should stay compliant forever")
	}

	lateTicket := naiveTicket(created)
	lateResolved := created.Add(30 * time.Hour)
	lateTicket.ResolvedAt = &lateResolved

	if ComputeDeadlines(lateTicket, now).WithinResolutionSLA {
		t.Fatal("late resolution should never become compliant")
	}
}

func TestComputeDeadlinesWithCalendar(t *testing.T) {
	// Monday 15:00, 4h response budget against 09:00-17:00 weekdays:
	// deadline lands Tuesday 11:00.
	created := mustTime(t, "2026-03-02T15:00:00Z")
	ticket := naiveTicket(created)
	ticket.SLA.CalendarName = "business-hours"
	ticket.SLA.Calendar = businessCalendar()

	report := ComputeDeadlines(ticket, created.Add(time.Hour))

	if want := mustTime(t, "2026-03-03T11:00:00Z"); !report.ResponseDeadline.Equal(want) {
		t.Fatalf("response deadline = %v, want %v", report.ResponseDeadline, want)
	}
}

func TestPauseResumeGuards(t *testing.T) {
	now := mustTime(t, "2026-03-02T10:00:00Z")
	policy := domain.SLAPolicy{}

	if err := policy.Resume(now); err != domain.ErrNotPaused {
		t.Fatalf("resume unpaused = %v, want ErrNotPaused", err)
	}
	if err := policy.Pause(now); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := policy.Pause(now); err != domain.ErrAlreadyPaused {
		t.Fatalf("double pause = %v, want ErrAlreadyPaused", err)
	}
	if err := policy.Resume(now.Add(time.Hour)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if policy.PausedTotal != time.Hour {
		t.Fatalf("paused total = %v, want 1h", policy.PausedTotal)
	}
}
