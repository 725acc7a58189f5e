package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository. GetByID hands out
// copies so a caller mutating a loaded ticket without calling Update does
// not change stored state.
type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
	updates int
	failPut error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failPut != nil {
		return r.failPut
	}
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.updates++
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
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

func (r *fakeTicketRepo) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	r.mu.Lock()
	var id string
	for _, ticket := range r.tickets {
		if ticket.ExternalKey == key {
			id = ticket.ID
			break
		}
	}
	r.mu.Unlock()
	if id == "" {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *fakeTicketRepo) ListNonTerminal(_ context.Context) ([]domain.Ticket, error) {
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

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.DepartmentID != nil && ticket.DepartmentID != *filter.DepartmentID {
			continue
		}
		out = append(out, ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) MaxSequence(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var max int64
	for _, ticket := range r.tickets {
		if ticket.Sequence > max {
			max = ticket.Sequence
		}
	}
	return max, nil
}

func (r *fakeTicketRepo) stored(id string) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id]
}

type fakePolicyRepo struct {
	policies map[string]domain.SLAPolicy
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{policies: make(map[string]domain.SLAPolicy)}
}

func (r *fakePolicyRepo) GetByDepartment(_ context.Context, departmentID string) (*domain.SLAPolicy, error) {
	policy, ok := r.policies[departmentID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := policy
	return &copied, nil
}

func (r *fakePolicyRepo) Upsert(_ context.Context, policy *domain.SLAPolicy) error {
	r.policies[policy.DepartmentID] = *policy
	return nil
}

func (r *fakePolicyRepo) List(_ context.Context) ([]domain.SLAPolicy, error) {
	out := make([]domain.SLAPolicy, 0, len(r.policies))
	for _, policy := range r.policies {
		out = append(out, policy)
	}
	return out, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = fmt.Sprintf("history-%d", len(r.entries)+1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TicketHistory, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) byType(changeType domain.TicketChangeType) []domain.TicketHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TicketHistory, 0)
	for _, entry := range r.entries {
		if entry.ChangeType == changeType {
			out = append(out, entry)
		}
	}
	return out
}

func testLogger() *zap.Logger { return zap.NewNop() }
