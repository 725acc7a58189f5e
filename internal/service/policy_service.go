package service

import (
	"context"
	"time"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// PolicyService manages department SLA policies. Changes only affect
// tickets created afterwards; existing tickets keep their snapshot.
type PolicyService struct {
	policies   repository.PolicyRepository
	escalation *config.EscalationConfig
}

// NewPolicyService constructs the service.
func NewPolicyService(policies repository.PolicyRepository, escalation *config.EscalationConfig) *PolicyService {
	if escalation == nil {
		escalation = config.DefaultEscalationConfig()
	}
	return &PolicyService{policies: policies, escalation: escalation}
}

// List returns all configured policies.
func (s *PolicyService) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	policies, err := s.policies.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policies, nil
}

// Get returns the policy for a department.
func (s *PolicyService) Get(ctx context.Context, departmentID string) (*domain.SLAPolicy, error) {
	policy, err := s.policies.GetByDepartment(ctx, departmentID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("sla policy", map[string]any{"department_id": departmentID})
		}
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

// Upsert validates and stores a department policy. The calendar name, when
// set, must resolve against the escalation config.
func (s *PolicyService) Upsert(ctx context.Context, policy domain.SLAPolicy) (*domain.SLAPolicy, error) {
	if policy.DepartmentID == "" {
		return nil, apperrors.NewValidationError("department_id is required", nil)
	}
	if policy.ResponseBudget <= 0 || policy.ResolutionBudget <= 0 {
		return nil, apperrors.NewValidationError("budgets must be positive", nil)
	}
	if policy.ResolutionBudget < policy.ResponseBudget {
		return nil, apperrors.NewValidationError("resolution budget must not undercut response budget", nil)
	}
	if policy.ResponseBudget%time.Minute != 0 || policy.ResolutionBudget%time.Minute != 0 {
		return nil, apperrors.NewValidationError("budgets must be whole minutes", nil)
	}
	if policy.CalendarName != "" && s.escalation.CalendarByName(policy.CalendarName) == nil {
		return nil, apperrors.NewValidationError("unknown calendar", map[string]any{"calendar_name": policy.CalendarName})
	}
	if err := s.policies.Upsert(ctx, &policy); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &policy, nil
}
