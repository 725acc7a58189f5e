package domain

import (
	"fmt"
	"time"
)

// SystemInitiator marks escalations triggered by the breach sweep rather
// than a human actor.
const SystemInitiator = "system"

// EscalationRung is one level of a department's escalation ladder.
// Levels are 1-based and contiguous.
type EscalationRung struct {
	Level          int    `json:"level" yaml:"level"`
	Recipient      string `json:"recipient" yaml:"recipient"`
	TimeoutMinutes int    `json:"timeout_minutes,omitempty" yaml:"timeout_minutes"`
}

// EscalationLadder is the ordered escalation path for a department.
type EscalationLadder struct {
	DepartmentID string           `json:"department" yaml:"department"`
	Rungs        []EscalationRung `json:"rungs" yaml:"rungs"`
}

// Validate checks that rung levels are contiguous starting at 1.
func (l *EscalationLadder) Validate() error {
	if len(l.Rungs) == 0 {
		return fmt.Errorf("ladder %q has no rungs", l.DepartmentID)
	}
	for i, rung := range l.Rungs {
		if rung.Level != i+1 {
			return fmt.Errorf("ladder %q: rung %d has level %d, want %d", l.DepartmentID, i, rung.Level, i+1)
		}
		if rung.Recipient == "" {
			return fmt.Errorf("ladder %q: rung level %d has no recipient", l.DepartmentID, rung.Level)
		}
	}
	return nil
}

// MaxLevel returns the highest level on the ladder.
func (l *EscalationLadder) MaxLevel() int {
	return len(l.Rungs)
}

// Rung returns the rung for a 1-based level, or false when the level is
// off the ladder.
func (l *EscalationLadder) Rung(level int) (EscalationRung, bool) {
	if level < 1 || level > len(l.Rungs) {
		return EscalationRung{}, false
	}
	return l.Rungs[level-1], true
}

// EscalationRecord is an append-only audit entry for a single escalation.
// Records are never rewritten once attached to a ticket.
type EscalationRecord struct {
	ID        string    `json:"id"`
	Level     int       `json:"level"`
	Recipient string    `json:"recipient"`
	Initiator string    `json:"initiator"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
