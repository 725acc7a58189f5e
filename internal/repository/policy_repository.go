package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// PolicyRepository stores department-wide SLA policies. Budgets persist as
// whole minutes; the calendar is referenced by name and resolved against
// the escalation config at load time.
type PolicyRepository interface {
	GetByDepartment(ctx context.Context, departmentID string) (*domain.SLAPolicy, error)
	Upsert(ctx context.Context, policy *domain.SLAPolicy) error
	List(ctx context.Context) ([]domain.SLAPolicy, error)
}

type policyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository builds the repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepository{pool: pool}
}

func (r *policyRepository) GetByDepartment(ctx context.Context, departmentID string) (*domain.SLAPolicy, error) {
	const query = `
        SELECT department_id, response_minutes, resolution_minutes, calendar_name
        FROM sla_policies WHERE department_id=$1`
	var policy domain.SLAPolicy
	var responseMinutes, resolutionMinutes int64
	if err := r.pool.QueryRow(ctx, query, departmentID).Scan(
		&policy.DepartmentID,
		&responseMinutes,
		&resolutionMinutes,
		&policy.CalendarName,
	); err != nil {
		return nil, err
	}
	policy.ResponseBudget = time.Duration(responseMinutes) * time.Minute
	policy.ResolutionBudget = time.Duration(resolutionMinutes) * time.Minute
	return &policy, nil
}

func (r *policyRepository) Upsert(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        INSERT INTO sla_policies (department_id, response_minutes, resolution_minutes, calendar_name)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (department_id) DO UPDATE SET
            response_minutes=EXCLUDED.response_minutes,
            resolution_minutes=EXCLUDED.resolution_minutes,
            calendar_name=EXCLUDED.calendar_name,
            updated_at=NOW()`
	_, err := r.pool.Exec(ctx, query,
		policy.DepartmentID,
		int64(policy.ResponseBudget/time.Minute),
		int64(policy.ResolutionBudget/time.Minute),
		policy.CalendarName,
	)
	return err
}

func (r *policyRepository) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	const query = `
        SELECT department_id, response_minutes, resolution_minutes, calendar_name
        FROM sla_policies ORDER BY department_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAPolicy
	for rows.Next() {
		var policy domain.SLAPolicy
		var responseMinutes, resolutionMinutes int64
		if err := rows.Scan(&policy.DepartmentID, &responseMinutes, &resolutionMinutes, &policy.CalendarName); err != nil {
			return nil, err
		}
		policy.ResponseBudget = time.Duration(responseMinutes) * time.Minute
		policy.ResolutionBudget = time.Duration(resolutionMinutes) * time.Minute
		result = append(result, policy)
	}
	return result, rows.Err()
}

// IsNotFound reports whether err is the driver's no-rows sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
