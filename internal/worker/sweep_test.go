package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/sla"
)

type memoryTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
}

func newMemoryTicketRepo() *memoryTicketRepo {
	return &memoryTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *memoryTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	copied.Escalations = append([]domain.EscalationRecord(nil), ticket.Escalations...)
	return &copied, nil
}

func (r *memoryTicketRepo) GetByExternalKey(_ context.Context, _ string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func (r *memoryTicketRepo) ListNonTerminal(_ context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if !ticket.Status.IsTerminal() {
			out = append(out, ticket)
		}
	}
	return out, nil
}

func (r *memoryTicketRepo) ListWithFilter(_ context.Context, _ repository.TicketFilter) ([]domain.Ticket, error) {
	return r.ListNonTerminal(context.Background())
}

func (r *memoryTicketRepo) MaxSequence(_ context.Context) (int64, error) { return 0, nil }

func (r *memoryTicketRepo) stored(id string) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id]
}

type sweepFixture struct {
	sweep    *BreachSweep
	tickets  *memoryTicketRepo
	clock    *sla.FixedClock
	warnings *[]events.Event
	metrics  *observability.Metrics
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	tickets := newMemoryTicketRepo()
	clock := &sla.FixedClock{Instant: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	warnings := &[]events.Event{}
	dispatcher.Subscribe(events.EventSLAWarning, func(_ context.Context, event events.Event) error {
		*warnings = append(*warnings, event)
		return nil
	})

	escalator := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo: tickets,
		Dispatcher: dispatcher,
		Escalation: config.DefaultEscalationConfig(),
		Clock:      clock,
		Logger:     logger,
		Metrics:    metrics,
	})

	sweep := NewBreachSweep(SweepConfig{
		Interval:            time.Minute,
		EscalationThreshold: time.Hour,
		ResponseWarning:     15 * time.Minute,
		ResolutionWarning:   30 * time.Minute,
	}, tickets, escalator, dispatcher, clock, logger, metrics)

	return &sweepFixture{sweep: sweep, tickets: tickets, clock: clock, warnings: warnings, metrics: metrics}
}

func (fx *sweepFixture) seed(t *testing.T, status domain.TicketStatus, level int, createdAgo time.Duration) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		DepartmentID:    "general",
		Title:           "stuck",
		Status:          status,
		Priority:        domain.TicketPriorityMedium,
		EscalationLevel: level,
		CreatedAt:       fx.clock.Instant.Add(-createdAgo),
		SLA: domain.SLAPolicy{
			DepartmentID:     "general",
			ResponseBudget:   4 * time.Hour,
			ResolutionBudget: 24 * time.Hour,
		},
	}
	for lvl := 1; lvl <= level; lvl++ {
		ticket.Escalations = append(ticket.Escalations, domain.EscalationRecord{Level: lvl})
	}
	if err := fx.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return ticket
}

func TestSweepEscalatesBreachedTicket(t *testing.T) {
	fx := newSweepFixture(t)
	// Created 25h ago with a 24h resolution budget: past deadline, never
	// touched, never responded to.
	seeded := fx.seed(t, domain.TicketStatusOpen, 0, 25*time.Hour)

	evaluated := fx.sweep.RunOnce(context.Background())
	if evaluated != 1 {
		t.Fatalf("evaluated = %d, want 1", evaluated)
	}

	stored := fx.tickets.stored(seeded.ID)
	if stored.Status != domain.TicketStatusEscalated {
		t.Fatalf("status = %s, want ESCALATED", stored.Status)
	}
	if stored.EscalationLevel != 1 {
		t.Fatalf("level = %d, want 1", stored.EscalationLevel)
	}
	if len(stored.Escalations) != 1 {
		t.Fatalf("records = %d, want 1", len(stored.Escalations))
	}
	record := stored.Escalations[0]
	if record.Initiator != domain.SystemInitiator {
		t.Fatalf("initiator = %s, want %s", record.Initiator, domain.SystemInitiator)
	}
	if record.Reason != autoEscalationReason {
		t.Fatalf("reason = %q, want %q", record.Reason, autoEscalationReason)
	}

	// Both warnings fire: no first response and resolution overdue.
	kinds := map[events.SLAWarningKind]bool{}
	for _, event := range *fx.warnings {
		payload := event.Payload.(events.SLAWarningPayload)
		kinds[payload.Kind] = true
	}
	if !kinds[events.WarningResponse] || !kinds[events.WarningResolution] {
		t.Fatalf("warning kinds = %v, want both response and resolution", kinds)
	}
}

func TestSweepDoesNotReEscalate(t *testing.T) {
	fx := newSweepFixture(t)
	seeded := fx.seed(t, domain.TicketStatusOpen, 0, 25*time.Hour)

	fx.sweep.RunOnce(context.Background())
	fx.sweep.RunOnce(context.Background())

	stored := fx.tickets.stored(seeded.ID)
	if stored.EscalationLevel != 1 {
		t.Fatalf("level = %d after two sweeps, want 1", stored.EscalationLevel)
	}
	if len(stored.Escalations) != 1 {
		t.Fatalf("records = %d after two sweeps, want 1", len(stored.Escalations))
	}
}

func TestSweepAtMaxLevelRecordsFailureWithoutChange(t *testing.T) {
	fx := newSweepFixture(t)
	// A ticket pulled back to IN_PROGRESS while already at the ladder top;
	// the escalated-status guard no longer applies.
	seeded := fx.seed(t, domain.TicketStatusInProgress, 3, 25*time.Hour)

	fx.sweep.RunOnce(context.Background())

	stored := fx.tickets.stored(seeded.ID)
	if stored.EscalationLevel != 3 || len(stored.Escalations) != 3 {
		t.Fatalf("ticket changed: level=%d records=%d", stored.EscalationLevel, len(stored.Escalations))
	}
	if stored.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS untouched", stored.Status)
	}
	if got := fx.metrics.Snapshot()["sweep_failures"]; got != 1 {
		t.Fatalf("sweep failures = %d, want 1", got)
	}
}

func TestSweepLeavesHealthyTicketsAlone(t *testing.T) {
	fx := newSweepFixture(t)
	seeded := fx.seed(t, domain.TicketStatusOpen, 0, time.Hour)

	fx.sweep.RunOnce(context.Background())

	stored := fx.tickets.stored(seeded.ID)
	if stored.EscalationLevel != 0 || stored.Status != domain.TicketStatusOpen {
		t.Fatalf("healthy ticket touched: %+v", stored)
	}
	if len(*fx.warnings) != 0 {
		t.Fatalf("warnings = %d, want 0", len(*fx.warnings))
	}
}

func TestSweepSkipsTerminalTickets(t *testing.T) {
	fx := newSweepFixture(t)
	fx.seed(t, domain.TicketStatusClosed, 0, 48*time.Hour)
	fx.seed(t, domain.TicketStatusCancelled, 0, 48*time.Hour)

	if evaluated := fx.sweep.RunOnce(context.Background()); evaluated != 0 {
		t.Fatalf("evaluated = %d, want 0", evaluated)
	}
}

func TestSweepPausedTicketNotEscalated(t *testing.T) {
	fx := newSweepFixture(t)
	seeded := fx.seed(t, domain.TicketStatusOpen, 0, 23*time.Hour)

	// Pause opened 23h ago: the whole elapsed time is frozen, so the
	// resolution deadline sits a full budget away.
	stored := fx.tickets.stored(seeded.ID)
	pausedAt := stored.CreatedAt
	stored.SLA.Paused = true
	stored.SLA.PausedAt = &pausedAt
	if err := fx.tickets.Update(context.Background(), &stored); err != nil {
		t.Fatalf("update: %v", err)
	}

	fx.sweep.RunOnce(context.Background())

	after := fx.tickets.stored(seeded.ID)
	if after.EscalationLevel != 0 {
		t.Fatalf("paused ticket escalated to level %d", after.EscalationLevel)
	}
}

func TestSweepStopIsGraceful(t *testing.T) {
	fx := newSweepFixture(t)
	fx.sweep.Start(context.Background())

	done := make(chan struct{})
	go func() {
		fx.sweep.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
