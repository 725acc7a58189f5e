package service

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// allowedTransitions is the full status state machine. CANCELLED is
// reachable from every non-terminal state; CLOSED and CANCELLED admit
// nothing further.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen: {
		domain.TicketStatusInProgress,
		domain.TicketStatusEscalated,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusInProgress: {
		domain.TicketStatusOnHold,
		domain.TicketStatusEscalated,
		domain.TicketStatusResolved,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusOnHold: {
		domain.TicketStatusInProgress,
		domain.TicketStatusClosed,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusEscalated: {
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusResolved: {
		domain.TicketStatusClosed,
		domain.TicketStatusInProgress,
		domain.TicketStatusCancelled,
	},
	domain.TicketStatusClosed:    {},
	domain.TicketStatusCancelled: {},
}

// CanTransition reports whether the state machine allows current -> next.
func CanTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ApplyTransition validates and applies a status change in place, keeping
// ResolvedAt and ClosedAt consistent with the status:
//
//   - entering RESOLVED stamps ResolvedAt
//   - reopening from RESOLVED clears it
//   - entering CLOSED stamps ClosedAt
//
// On rejection the ticket is left untouched and an INVALID_TRANSITION
// error identifies both states.
func ApplyTransition(ticket *domain.Ticket, next domain.TicketStatus, now time.Time) error {
	if !CanTransition(ticket.Status, next) {
		return apperrors.NewInvalidTransition(string(ticket.Status), string(next))
	}

	previous := ticket.Status
	ticket.Status = next

	switch next {
	case domain.TicketStatusResolved:
		stamped := now
		ticket.ResolvedAt = &stamped
	case domain.TicketStatusClosed:
		stamped := now
		ticket.ClosedAt = &stamped
	case domain.TicketStatusInProgress:
		if previous == domain.TicketStatusResolved {
			ticket.ResolvedAt = nil
		}
	}
	return nil
}
