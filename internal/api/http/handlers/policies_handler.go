package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// PoliciesHandler manages department SLA policy endpoints.
type PoliciesHandler struct {
	service *service.PolicyService
}

// NewPoliciesHandler constructs handler.
func NewPoliciesHandler(policyService *service.PolicyService) *PoliciesHandler {
	return &PoliciesHandler{service: policyService}
}

// List GET /staff/policies.
func (h *PoliciesHandler) List(c *fiber.Ctx) error {
	policies, err := h.service.List(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.PolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, dto.FromPolicy(&policies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /staff/policies/:department.
func (h *PoliciesHandler) Get(c *fiber.Ctx) error {
	policy, err := h.service.Get(c.Context(), c.Params("department"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromPolicy(policy)})
}

// Upsert PUT /staff/policies/:department.
func (h *PoliciesHandler) Upsert(c *fiber.Ctx) error {
	var req dto.UpsertPolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	policy, err := h.service.Upsert(c.Context(), domain.SLAPolicy{
		DepartmentID:     c.Params("department"),
		ResponseBudget:   time.Duration(req.ResponseMinutes) * time.Minute,
		ResolutionBudget: time.Duration(req.ResolutionMinutes) * time.Minute,
		CalendarName:     req.CalendarName,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromPolicy(policy)})
}
