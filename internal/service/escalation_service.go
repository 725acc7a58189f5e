package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/lock"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/sla"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// EscalationService advances tickets up their department's escalation
// ladder. An escalation is atomic from the caller's perspective: level,
// status, assignee, and the escalation record all change together under
// the ticket's lock, or not at all. Notification dispatch is deliberately
// outside that guarantee; a failed dispatch never rolls an escalation back
// because the invariant that matters is that the responsible party changed.
type EscalationService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	escalation *config.EscalationConfig
	locks      *lock.KeyedMutex
	clock      sla.Clock
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// EscalationDependencies bundles collaborators for the escalation engine.
type EscalationDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Escalation  *config.EscalationConfig
	Locks       *lock.KeyedMutex
	Clock       sla.Clock
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// NewEscalationService constructs the engine.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	svc := &EscalationService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		escalation: deps.Escalation,
		locks:      deps.Locks,
		clock:      deps.Clock,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
	if svc.clock == nil {
		svc.clock = sla.SystemClock()
	}
	if svc.locks == nil {
		svc.locks = lock.NewKeyedMutex()
	}
	if svc.escalation == nil {
		svc.escalation = config.DefaultEscalationConfig()
	}
	return svc
}

// Escalate moves the ticket to the next ladder rung. The initiator is
// either a staff id or domain.SystemInitiator when the breach sweep fires.
//
// Fails with MAX_ESCALATION_LEVEL when the ticket already sits on the top
// rung; the ticket is left completely unchanged in that case.
func (s *EscalationService) Escalate(ctx context.Context, ticketID, initiator, reason string) (*domain.Ticket, error) {
	unlock := s.locks.Lock(ticketID)
	defer unlock()

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"status": ticket.Status})
	}

	ladder := s.escalation.LadderFor(ticket.DepartmentID)
	nextLevel := ticket.EscalationLevel + 1
	rung, ok := ladder.Rung(nextLevel)
	if !ok {
		return nil, apperrors.NewMaxEscalationLevel(ticket.EscalationLevel, ladder.MaxLevel())
	}

	now := s.clock.Now()
	oldStatus := ticket.Status
	oldAssignee := ticket.AssigneeID
	if ticket.Status != domain.TicketStatusEscalated {
		if err := ApplyTransition(ticket, domain.TicketStatusEscalated, now); err != nil {
			return nil, err
		}
	}

	record := domain.EscalationRecord{
		ID:        uuid.NewString(),
		Level:     nextLevel,
		Recipient: rung.Recipient,
		Initiator: initiator,
		Reason:    reason,
		CreatedAt: now,
	}
	ticket.EscalationLevel = nextLevel
	ticket.Escalations = append(ticket.Escalations, record)
	recipient := rung.Recipient
	ticket.AssigneeID = &recipient

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordEscalation(initiatorKind(initiator))
	s.recordEscalationHistory(ctx, ticket, oldStatus, oldAssignee, record)
	s.publishEscalated(ctx, ticket, record)
	return ticket, nil
}

func (s *EscalationService) recordEscalationHistory(ctx context.Context, ticket *domain.Ticket, oldStatus domain.TicketStatus, oldAssignee *string, record domain.EscalationRecord) {
	if s.history == nil {
		return
	}
	actorType := domain.ActorTypeSystem
	var actorID *string
	if record.Initiator != domain.SystemInitiator {
		actorType = domain.ActorTypeStaff
		initiator := record.Initiator
		actorID = &initiator
	}
	entry := &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeEscalation,
		OldValue: map[string]any{
			"status":           oldStatus,
			"assignee_id":      oldAssignee,
			"escalation_level": record.Level - 1,
		},
		NewValue: map[string]any{
			"status":           ticket.Status,
			"assignee_id":      ticket.AssigneeID,
			"escalation_level": record.Level,
			"reason":           record.Reason,
		},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record escalation history",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}
}

func (s *EscalationService) publishEscalated(ctx context.Context, ticket *domain.Ticket, record domain.EscalationRecord) {
	if s.dispatcher == nil {
		return
	}
	actor := events.Actor{Type: domain.ActorTypeSystem}
	if record.Initiator != domain.SystemInitiator {
		actor = staffActor(record.Initiator)
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketEscalated,
		TicketID:  ticket.ID,
		Actor:     actor,
		Timestamp: record.CreatedAt,
		Payload: events.TicketEscalatedPayload{
			Level:     record.Level,
			Recipient: record.Recipient,
			Initiator: record.Initiator,
			Reason:    record.Reason,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func initiatorKind(initiator string) string {
	if initiator == domain.SystemInitiator {
		return domain.SystemInitiator
	}
	return "manual"
}
