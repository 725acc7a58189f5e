package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

func policyConfigWithCalendar() *config.EscalationConfig {
	cfg := config.DefaultEscalationConfig()
	cfg.Calendars = []domain.WorkCalendar{{
		Name:     "office",
		TimeZone: "UTC",
		WorkingHours: []domain.WorkingWindow{
			{Weekday: "monday", Start: "09:00", End: "17:00"},
		},
	}}
	return cfg
}

func TestPolicyUpsertAndGet(t *testing.T) {
	repo := newFakePolicyRepo()
	svc := NewPolicyService(repo, policyConfigWithCalendar())

	stored, err := svc.Upsert(context.Background(), domain.SLAPolicy{
		DepartmentID:     "billing",
		ResponseBudget:   2 * time.Hour,
		ResolutionBudget: 8 * time.Hour,
		CalendarName:     "office",
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if stored.DepartmentID != "billing" {
		t.Fatalf("stored = %+v", stored)
	}

	got, err := svc.Get(context.Background(), "billing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ResponseBudget != 2*time.Hour || got.CalendarName != "office" {
		t.Fatalf("got = %+v", got)
	}

	if _, err := svc.Get(context.Background(), "missing"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestPolicyUpsertValidation(t *testing.T) {
	svc := NewPolicyService(newFakePolicyRepo(), policyConfigWithCalendar())

	cases := []struct {
		name   string
		policy domain.SLAPolicy
	}{
		{"missing department", domain.SLAPolicy{ResponseBudget: time.Hour, ResolutionBudget: 2 * time.Hour}},
		{"zero budget", domain.SLAPolicy{DepartmentID: "x", ResolutionBudget: time.Hour}},
		{"resolution under response", domain.SLAPolicy{DepartmentID: "x", ResponseBudget: 4 * time.Hour, ResolutionBudget: time.Hour}},
		{"sub-minute budget", domain.SLAPolicy{DepartmentID: "x", ResponseBudget: 90 * time.Second, ResolutionBudget: time.Hour}},
		{"unknown calendar", domain.SLAPolicy{DepartmentID: "x", ResponseBudget: time.Hour, ResolutionBudget: 2 * time.Hour, CalendarName: "nope"}},
	}
	for _, tc := range cases {
		if _, err := svc.Upsert(context.Background(), tc.policy); !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
			t.Errorf("%s: error = %v, want VALIDATION_FAILED", tc.name, err)
		}
	}
}
