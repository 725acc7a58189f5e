package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/sla"
)

// EscalationConfig is the YAML-backed lookup table for business calendars
// and per-department escalation ladders. A ladder keyed by the default
// department acts as the fallback for departments without their own.
type EscalationConfig struct {
	Calendars []domain.WorkCalendar     `yaml:"calendars"`
	Ladders   []domain.EscalationLadder `yaml:"ladders"`
}

// LoadEscalationConfig reads and validates the escalation config file.
// A missing file yields the built-in defaults rather than an error.
func LoadEscalationConfig(path string) (*EscalationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultEscalationConfig(), nil
		}
		return nil, fmt.Errorf("read escalation config: %w", err)
	}

	var cfg EscalationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse escalation config: %w", err)
	}
	for i := range cfg.Ladders {
		if err := cfg.Ladders[i].Validate(); err != nil {
			return nil, err
		}
	}
	for i := range cfg.Calendars {
		if err := sla.ValidateCalendar(&cfg.Calendars[i]); err != nil {
			return nil, err
		}
	}
	if _, ok := cfg.ladder(domain.DefaultDepartmentID); !ok {
		cfg.Ladders = append(cfg.Ladders, defaultLadder())
	}
	return &cfg, nil
}

// DefaultEscalationConfig returns the compiled-in single-ladder setup with
// no calendars (calendar-naive SLAs).
func DefaultEscalationConfig() *EscalationConfig {
	return &EscalationConfig{Ladders: []domain.EscalationLadder{defaultLadder()}}
}

func defaultLadder() domain.EscalationLadder {
	return domain.EscalationLadder{
		DepartmentID: domain.DefaultDepartmentID,
		Rungs: []domain.EscalationRung{
			{Level: 1, Recipient: "team-lead"},
			{Level: 2, Recipient: "department-manager"},
			{Level: 3, Recipient: "operations-director"},
		},
	}
}

// LadderFor returns the department's ladder, falling back to the default
// ladder when the department has none.
func (c *EscalationConfig) LadderFor(departmentID string) *domain.EscalationLadder {
	if ladder, ok := c.ladder(departmentID); ok {
		return ladder
	}
	ladder, _ := c.ladder(domain.DefaultDepartmentID)
	return ladder
}

// CalendarByName resolves a calendar, or nil when the name is empty or
// unknown (calendar-naive mode).
func (c *EscalationConfig) CalendarByName(name string) *domain.WorkCalendar {
	if name == "" {
		return nil
	}
	for i := range c.Calendars {
		if c.Calendars[i].Name == name {
			return &c.Calendars[i]
		}
	}
	return nil
}

func (c *EscalationConfig) ladder(departmentID string) (*domain.EscalationLadder, bool) {
	for i := range c.Ladders {
		if c.Ladders[i].DepartmentID == departmentID {
			return &c.Ladders[i], true
		}
	}
	return nil, false
}
