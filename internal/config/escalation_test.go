package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "escalation.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEscalationConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadEscalationConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	ladder := cfg.LadderFor(domain.DefaultDepartmentID)
	if ladder == nil || ladder.MaxLevel() != 3 {
		t.Fatalf("default ladder = %+v, want 3 rungs", ladder)
	}
	rung, ok := ladder.Rung(1)
	if !ok || rung.Recipient != "team-lead" {
		t.Fatalf("rung 1 = %+v, want team-lead", rung)
	}
}

func TestLoadEscalationConfigParsesYAML(t *testing.T) {
	path := writeConfig(t, `
calendars:
  - name: office
    timezone: UTC
    working_hours:
      - weekday: monday
        start: "09:00"
        end: "17:00"
    holidays:
      - "2026-12-25"
ladders:
  - department: billing
    rungs:
      - level: 1
        recipient: billing-lead
      - level: 2
        recipient: finance-manager
`)

	cfg, err := LoadEscalationConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cal := cfg.CalendarByName("office"); cal == nil || len(cal.WorkingHours) != 1 {
		t.Fatalf("calendar = %+v", cal)
	}
	if cal := cfg.CalendarByName("missing"); cal != nil {
		t.Fatalf("unknown calendar = %+v, want nil", cal)
	}
	if cal := cfg.CalendarByName(""); cal != nil {
		t.Fatal("empty calendar name should resolve to nil")
	}

	billing := cfg.LadderFor("billing")
	if billing.MaxLevel() != 2 {
		t.Fatalf("billing ladder levels = %d, want 2", billing.MaxLevel())
	}

	// Departments without a ladder fall back to the default one, which is
	// appended automatically when the file does not define it.
	fallback := cfg.LadderFor("logistics")
	if fallback == nil || fallback.DepartmentID != domain.DefaultDepartmentID {
		t.Fatalf("fallback ladder = %+v, want default", fallback)
	}
}

func TestLoadEscalationConfigRejectsBadLadder(t *testing.T) {
	path := writeConfig(t, `
ladders:
  - department: billing
    rungs:
      - level: 1
        recipient: billing-lead
      - level: 3
        recipient: finance-manager
`)

	if _, err := LoadEscalationConfig(path); err == nil {
		t.Fatal("non-contiguous ladder accepted")
	}
}

func TestLoadEscalationConfigRejectsBadCalendar(t *testing.T) {
	path := writeConfig(t, `
calendars:
  - name: broken
    timezone: UTC
    working_hours:
      - weekday: monday
        start: "17:00"
        end: "09:00"
`)

	if _, err := LoadEscalationConfig(path); err == nil {
		t.Fatal("inverted working window accepted")
	}
}
