package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/sla"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

const autoEscalationReason = "resolution SLA at risk"

// SweepConfig tunes the breach sweep thresholds.
type SweepConfig struct {
	Interval            time.Duration
	EscalationThreshold time.Duration
	ResponseWarning     time.Duration
	ResolutionWarning   time.Duration
}

// BreachSweep periodically scans all non-terminal tickets, recomputes
// their deadlines, and reacts: auto-escalation when the resolution
// deadline is close, warning notifications for both SLA kinds.
//
// Exactly one sweep instance is assumed per deployment. Running several
// concurrently without external locking could escalate the same ticket
// twice within one risk window.
type BreachSweep struct {
	cfg        SweepConfig
	tickets    repository.TicketRepository
	escalator  *service.EscalationService
	dispatcher events.Dispatcher
	clock      sla.Clock
	logger     *zap.Logger
	metrics    *observability.Metrics

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewBreachSweep constructs the sweep.
func NewBreachSweep(cfg SweepConfig, tickets repository.TicketRepository, escalator *service.EscalationService, dispatcher events.Dispatcher, clock sla.Clock, logger *zap.Logger, metrics *observability.Metrics) *BreachSweep {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.EscalationThreshold <= 0 {
		cfg.EscalationThreshold = time.Hour
	}
	if cfg.ResponseWarning <= 0 {
		cfg.ResponseWarning = 15 * time.Minute
	}
	if cfg.ResolutionWarning <= 0 {
		cfg.ResolutionWarning = 30 * time.Minute
	}
	if clock == nil {
		clock = sla.SystemClock()
	}
	return &BreachSweep{
		cfg:        cfg,
		tickets:    tickets,
		escalator:  escalator,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the sweep loop. The loop exits when Stop is called or
// ctx is cancelled; an in-flight pass always finishes first.
func (s *BreachSweep) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.logger.Info("breach sweep started", zap.Duration("interval", s.cfg.Interval))
		for {
			select {
			case <-s.stop:
				s.logger.Info("breach sweep stopped")
				return
			case <-ctx.Done():
				s.logger.Info("breach sweep context cancelled")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop requests a graceful stop and waits for the loop to exit.
func (s *BreachSweep) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// RunOnce performs a single sweep pass and returns the number of tickets
// evaluated. A failure on one ticket never aborts the rest of the pass.
func (s *BreachSweep) RunOnce(ctx context.Context) int {
	tickets, err := s.tickets.ListNonTerminal(ctx)
	if err != nil {
		s.logger.Error("sweep failed to list tickets", zap.Error(err))
		return 0
	}

	for i := range tickets {
		s.evaluate(ctx, &tickets[i])
	}
	s.metrics.RecordSweep(len(tickets))
	return len(tickets)
}

func (s *BreachSweep) evaluate(ctx context.Context, ticket *domain.Ticket) {
	now := s.clock.Now()
	report := sla.ComputeDeadlines(ticket, now)

	if report.ResolutionRemaining <= s.cfg.EscalationThreshold && !ticket.IsEscalated() {
		if _, err := s.escalator.Escalate(ctx, ticket.ID, domain.SystemInitiator, autoEscalationReason); err != nil {
			s.metrics.RecordSweepFailure()
			if apperrors.HasCode(err, apperrors.CodeMaxEscalationLevel) {
				s.logger.Warn("ticket already at top escalation level",
					zap.String("ticket_id", ticket.ID),
					zap.Int("level", ticket.EscalationLevel))
			} else {
				s.logger.Error("auto-escalation failed",
					zap.String("ticket_id", ticket.ID),
					zap.Error(err))
			}
		}
	}

	if ticket.FirstResponseAt == nil && report.ResponseRemaining <= s.cfg.ResponseWarning {
		s.publishWarning(ctx, ticket, events.WarningResponse, report.ResponseDeadline, report.ResponseRemaining)
	}
	if ticket.ResolvedAt == nil && report.ResolutionRemaining <= s.cfg.ResolutionWarning {
		s.publishWarning(ctx, ticket, events.WarningResolution, report.ResolutionDeadline, report.ResolutionRemaining)
	}
}

// publishWarning requests a warning notification without mutating the
// ticket.
func (s *BreachSweep) publishWarning(ctx context.Context, ticket *domain.Ticket, kind events.SLAWarningKind, deadline time.Time, remaining time.Duration) {
	s.metrics.RecordSLAWarning(string(kind))
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSLAWarning,
		TicketID:  ticket.ID,
		Actor:     events.Actor{Type: domain.ActorTypeSystem},
		Timestamp: s.clock.Now(),
		Payload: events.SLAWarningPayload{
			Kind:      kind,
			Deadline:  deadline,
			Remaining: remaining,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
