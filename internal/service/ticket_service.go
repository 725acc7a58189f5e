package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/classify"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/lock"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/sequence"
	"github.com/spec-kit/complaint-service/internal/sla"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// TicketService owns ticket creation, the status state machine, SLA
// pause/resume, and deadline reporting. Every mutation of a ticket runs
// inside that ticket's critical section.
type TicketService struct {
	tickets    repository.TicketRepository
	policies   repository.PolicyRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	classifier classify.Classifier
	sequence   sequence.Generator
	escalation *config.EscalationConfig
	locks      *lock.KeyedMutex
	clock      sla.Clock
	logger     *zap.Logger
	defaults   DefaultPolicy
}

// DefaultPolicy is the documented fallback applied when a department has
// no configured SLA policy: calendar-naive with these budgets.
type DefaultPolicy struct {
	ResponseBudget   time.Duration
	ResolutionBudget time.Duration
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	PolicyRepo  repository.PolicyRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Classifier  classify.Classifier
	Sequence    sequence.Generator
	Escalation  *config.EscalationConfig
	Locks       *lock.KeyedMutex
	Clock       sla.Clock
	Logger      *zap.Logger
	Defaults    DefaultPolicy
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		tickets:    deps.TicketRepo,
		policies:   deps.PolicyRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		classifier: deps.Classifier,
		sequence:   deps.Sequence,
		escalation: deps.Escalation,
		locks:      deps.Locks,
		clock:      deps.Clock,
		logger:     deps.Logger,
		defaults:   deps.Defaults,
	}
	if svc.clock == nil {
		svc.clock = sla.SystemClock()
	}
	if svc.locks == nil {
		svc.locks = lock.NewKeyedMutex()
	}
	if svc.defaults.ResponseBudget <= 0 {
		svc.defaults.ResponseBudget = 4 * time.Hour
	}
	if svc.defaults.ResolutionBudget <= 0 {
		svc.defaults.ResolutionBudget = 24 * time.Hour
	}
	return svc
}

// CreateTicket classifies the complaint, snapshots the department's SLA
// policy into the ticket, and persists it with a fresh sequence number.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	result := s.classifier.Classify(input.Title, input.Description)
	priority := input.Priority
	if priority == "" {
		priority = result.Priority
	}

	policy := s.resolvePolicy(ctx, result.DepartmentID)

	seq, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		ExternalKey:  sequence.FormatKey(seq),
		Sequence:     seq,
		RequesterID:  userID,
		DepartmentID: result.DepartmentID,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Category:     result.Category,
		Status:       domain.TicketStatusOpen,
		Priority:     priority,
		SLA:          policy,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
		Payload: events.TicketCreatedPayload{
			ExternalKey:  ticket.ExternalKey,
			DepartmentID: ticket.DepartmentID,
			Category:     ticket.Category,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
		},
	})
	return ticket, nil
}

// Transition moves a ticket to the target status under the ticket's lock,
// recording the change in the audit history and publishing an event.
func (s *TicketService) Transition(ctx context.Context, actorType domain.ActorType, actorID *string, ticketID string, next domain.TicketStatus, reason string) (*domain.Ticket, error) {
	unlock := s.locks.Lock(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	if err := ApplyTransition(ticket, next, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, ticket.ID, actorType, actorID, domain.ChangeTypeStatus,
		map[string]any{"status": oldStatus},
		map[string]any{"status": next, "reason": reason})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: actorType, UserID: actorIDFor(actorType, domain.ActorTypeUser, actorID), StaffID: actorIDFor(actorType, domain.ActorTypeStaff, actorID)},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: next,
			Reason:    reason,
		},
	})
	return ticket, nil
}

// AssignTicket hands the ticket to a named assignee. Passing nil clears
// the assignment. Escalations overwrite the assignee with the rung
// recipient regardless of what was set here.
func (s *TicketService) AssignTicket(ctx context.Context, staffID, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	unlock := s.locks.Lock(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"status": ticket.Status})
	}

	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = assigneeID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, ticket.ID, domain.ActorTypeStaff, &staffID, domain.ChangeTypeAssignee,
		map[string]any{"assignee_id": oldAssignee},
		map[string]any{"assignee_id": assigneeID})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    staffActor(staffID),
		Payload:  events.TicketAssignedPayload{AssigneeID: assigneeID},
	})
	return ticket, nil
}

// RecordResponse stamps the first-response time once; later responses
// leave the original stamp untouched.
func (s *TicketService) RecordResponse(ctx context.Context, staffID, ticketID string) (*domain.Ticket, error) {
	unlock := s.locks.Lock(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"status": ticket.Status})
	}
	if ticket.FirstResponseAt != nil {
		return ticket, nil
	}

	now := s.clock.Now()
	ticket.FirstResponseAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordHistory(ctx, ticket.ID, domain.ActorTypeStaff, &staffID, domain.ChangeTypeResponse,
		nil, map[string]any{"first_response_at": now})
	return ticket, nil
}

// PauseSLA stops the SLA clock on the ticket's policy snapshot.
func (s *TicketService) PauseSLA(ctx context.Context, staffID, ticketID, reason string) (*domain.Ticket, error) {
	unlock := s.locks.Lock(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"status": ticket.Status})
	}
	if err := ticket.SLA.Pause(s.clock.Now()); err != nil {
		return nil, apperrors.NewConflict(err.Error(), nil)
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordHistory(ctx, ticket.ID, domain.ActorTypeStaff, &staffID, domain.ChangeTypeSLAPause,
		nil, map[string]any{"reason": reason, "paused_at": *ticket.SLA.PausedAt})
	return ticket, nil
}

// ResumeSLA restarts the SLA clock, folding the pause window into the
// accumulated paused duration.
func (s *TicketService) ResumeSLA(ctx context.Context, staffID, ticketID string) (*domain.Ticket, error) {
	unlock := s.locks.Lock(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := ticket.SLA.Resume(s.clock.Now()); err != nil {
		return nil, apperrors.NewConflict(err.Error(), nil)
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordHistory(ctx, ticket.ID, domain.ActorTypeStaff, &staffID, domain.ChangeTypeSLAResume,
		nil, map[string]any{"paused_total": ticket.SLA.PausedTotal.String()})
	return ticket, nil
}

// SLAReport computes the ticket's current deadlines and compliance.
func (s *TicketService) SLAReport(ctx context.Context, ticketID string) (*domain.Ticket, sla.DeadlineReport, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, sla.DeadlineReport{}, err
	}
	return ticket, sla.ComputeDeadlines(ticket, s.clock.Now()), nil
}

// GetTicketForUser fetches a ticket ensuring ownership.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// ListUserTickets returns paginated tickets for a requester.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		RequesterID: &userID,
		Limit:       limit,
		Offset:      offset,
	}
	return s.tickets.ListWithFilter(ctx, filter)
}

// ListStaffTickets returns tickets scoped to the staff member's department
// unless the caller is an admin.
func (s *TicketService) ListStaffTickets(ctx context.Context, staff *domain.StaffMember, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if staff == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	if staff.Role != domain.StaffRoleAdmin && staff.DepartmentID != nil {
		filter.DepartmentID = staff.DepartmentID
	}
	return s.tickets.ListWithFilter(ctx, filter)
}

// GetTicketForStaff fetches a ticket ensuring staff scope.
func (s *TicketService) GetTicketForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !staffCanAccessTicket(staff, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// GetTicketByKeyForStaff resolves a ticket by its external key, the form
// printed on customer-facing communication.
func (s *TicketService) GetTicketByKeyForStaff(ctx context.Context, staff *domain.StaffMember, key string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByExternalKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"external_key": key})
		}
		return nil, apperrors.MapError(err)
	}
	if !staffCanAccessTicket(staff, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// CloseTicketAsUser lets a requester close their resolved ticket.
func (s *TicketService) CloseTicketAsUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return s.Transition(ctx, domain.ActorTypeUser, &userID, ticketID, domain.TicketStatusClosed, "user_closed")
}

// ListHistory returns audit entries for a ticket.
func (s *TicketService) ListHistory(ctx context.Context, staff *domain.StaffMember, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicketForStaff(ctx, staff, ticketID); err != nil {
		return nil, err
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

// resolvePolicy resolves the department policy with its calendar attached,
// falling back to the default policy when none is configured. The fallback
// is deliberate behavior, not an error: it is logged and the ticket is
// created anyway.
func (s *TicketService) resolvePolicy(ctx context.Context, departmentID string) domain.SLAPolicy {
	stored, err := s.policies.GetByDepartment(ctx, departmentID)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.logger.Error("policy lookup failed", zap.String("department_id", departmentID), zap.Error(err))
		} else {
			s.logger.Warn("falling back to default SLA policy",
				zap.String("department_id", departmentID),
				zap.Error(apperrors.NewPolicyNotConfigured(departmentID)))
		}
		return domain.SLAPolicy{
			DepartmentID:     departmentID,
			ResponseBudget:   s.defaults.ResponseBudget,
			ResolutionBudget: s.defaults.ResolutionBudget,
		}
	}
	policy := *stored
	if s.escalation != nil {
		policy.Calendar = s.escalation.CalendarByName(policy.CalendarName)
	}
	return policy
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) recordHistory(ctx context.Context, ticketID string, actorType domain.ActorType, actorID *string, changeType domain.TicketChangeType, oldValue, newValue map[string]any) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    changeType,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record ticket history",
			zap.String("ticket_id", ticketID),
			zap.String("change_type", string(changeType)),
			zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func staffCanAccessTicket(staff *domain.StaffMember, ticket *domain.Ticket) bool {
	if staff == nil {
		return false
	}
	if staff.Role == domain.StaffRoleAdmin {
		return true
	}
	if staff.DepartmentID != nil && *staff.DepartmentID == ticket.DepartmentID {
		return true
	}
	return false
}

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.ActorTypeUser,
		UserID: &userID,
	}
}

func staffActor(staffID string) events.Actor {
	return events.Actor{
		Type:    domain.ActorTypeStaff,
		StaffID: &staffID,
	}
}

func actorIDFor(actual, want domain.ActorType, id *string) *string {
	if actual == want {
		return id
	}
	return nil
}
