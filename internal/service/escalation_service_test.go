package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/sla"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

func newEscalationFixture(t *testing.T) (*EscalationService, *fakeTicketRepo, *fakeHistoryRepo, *[]events.Event) {
	t.Helper()
	tickets := newFakeTicketRepo()
	history := &fakeHistoryRepo{}
	dispatcher := events.NewInMemoryDispatcher(testLogger())

	captured := &[]events.Event{}
	dispatcher.Subscribe(events.EventTicketEscalated, func(_ context.Context, event events.Event) error {
		*captured = append(*captured, event)
		return nil
	})

	svc := NewEscalationService(EscalationDependencies{
		TicketRepo:  tickets,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
		Escalation:  config.DefaultEscalationConfig(),
		Clock:       sla.FixedClock{Instant: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
		Logger:      testLogger(),
		Metrics:     observability.NewMetrics(),
	})
	return svc, tickets, history, captured
}

func seedTicket(t *testing.T, repo *fakeTicketRepo, status domain.TicketStatus, level int) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		RequesterID:     "user-1",
		DepartmentID:    "general",
		Title:           "printer on fire",
		Status:          status,
		Priority:        domain.TicketPriorityMedium,
		EscalationLevel: level,
	}
	for lvl := 1; lvl <= level; lvl++ {
		ticket.Escalations = append(ticket.Escalations, domain.EscalationRecord{Level: lvl})
	}
	if err := repo.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed ticket: %v", err)
	}
	return ticket
}

func TestEscalateFirstLevel(t *testing.T) {
	svc, tickets, history, captured := newEscalationFixture(t)
	seeded := seedTicket(t, tickets, domain.TicketStatusOpen, 0)

	updated, err := svc.Escalate(context.Background(), seeded.ID, "staff-9", "no movement")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}

	if updated.EscalationLevel != 1 {
		t.Fatalf("level = %d, want 1", updated.EscalationLevel)
	}
	if updated.Status != domain.TicketStatusEscalated {
		t.Fatalf("status = %s, want ESCALATED", updated.Status)
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != "team-lead" {
		t.Fatalf("assignee = %v, want team-lead", updated.AssigneeID)
	}
	if len(updated.Escalations) != 1 {
		t.Fatalf("records = %d, want 1", len(updated.Escalations))
	}
	record := updated.Escalations[0]
	if record.Initiator != "staff-9" || record.Reason != "no movement" || record.Recipient != "team-lead" {
		t.Fatalf("unexpected record %+v", record)
	}

	if entries := history.byType(domain.ChangeTypeEscalation); len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	if len(*captured) != 1 {
		t.Fatalf("events = %d, want 1", len(*captured))
	}
}

func TestEscalateWalksLadderInOrder(t *testing.T) {
	svc, tickets, _, _ := newEscalationFixture(t)
	seeded := seedTicket(t, tickets, domain.TicketStatusOpen, 0)

	wantRecipients := []string{"team-lead", "department-manager", "operations-director"}
	for i, want := range wantRecipients {
		updated, err := svc.Escalate(context.Background(), seeded.ID, domain.SystemInitiator, "sla risk")
		if err != nil {
			t.Fatalf("escalate to level %d: %v", i+1, err)
		}
		if updated.EscalationLevel != i+1 {
			t.Fatalf("level = %d, want %d", updated.EscalationLevel, i+1)
		}
		if *updated.AssigneeID != want {
			t.Fatalf("assignee = %s, want %s", *updated.AssigneeID, want)
		}
	}
}

func TestEscalateAtMaxLevelFailsAndLeavesTicketUnchanged(t *testing.T) {
	svc, tickets, history, captured := newEscalationFixture(t)
	seeded := seedTicket(t, tickets, domain.TicketStatusEscalated, 3)

	_, err := svc.Escalate(context.Background(), seeded.ID, domain.SystemInitiator, "sla risk")
	if err == nil {
		t.Fatal("escalation above the top rung should fail")
	}
	if !apperrors.HasCode(err, apperrors.CodeMaxEscalationLevel) {
		t.Fatalf("error = %v, want MAX_ESCALATION_LEVEL", err)
	}

	stored := tickets.stored(seeded.ID)
	if stored.EscalationLevel != 3 || len(stored.Escalations) != 3 {
		t.Fatalf("ticket changed on failed escalation: level=%d records=%d",
			stored.EscalationLevel, len(stored.Escalations))
	}
	if entries := history.byType(domain.ChangeTypeEscalation); len(entries) != 0 {
		t.Fatalf("history entries = %d, want 0", len(entries))
	}
	if len(*captured) != 0 {
		t.Fatalf("events = %d, want 0", len(*captured))
	}
}

func TestEscalateTerminalTicketConflicts(t *testing.T) {
	svc, tickets, _, _ := newEscalationFixture(t)
	seeded := seedTicket(t, tickets, domain.TicketStatusClosed, 0)

	_, err := svc.Escalate(context.Background(), seeded.ID, "staff-9", "too late")
	if err == nil {
		t.Fatal("escalating a closed ticket should fail")
	}
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("error = %v, want CONFLICT", err)
	}
}

func TestEscalateUnknownTicket(t *testing.T) {
	svc, _, _, _ := newEscalationFixture(t)

	_, err := svc.Escalate(context.Background(), "missing", "staff-9", "whatever")
	if err == nil {
		t.Fatal("unknown ticket should fail")
	}
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestEscalateKeepsEscalatedStatus(t *testing.T) {
	svc, tickets, _, _ := newEscalationFixture(t)
	seeded := seedTicket(t, tickets, domain.TicketStatusEscalated, 1)

	updated, err := svc.Escalate(context.Background(), seeded.ID, domain.SystemInitiator, "still stuck")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if updated.Status != domain.TicketStatusEscalated {
		t.Fatalf("status = %s, want ESCALATED", updated.Status)
	}
	if updated.EscalationLevel != 2 {
		t.Fatalf("level = %d, want 2", updated.EscalationLevel)
	}
}
