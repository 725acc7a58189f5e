package domain

// WorkCalendar describes the working-hours schedule and holidays used for
// SLA deadline math. A nil calendar (or one with no windows) means
// calendar-naive mode: elapsed time counts continuously.
type WorkCalendar struct {
	Name         string          `json:"name" yaml:"name"`
	TimeZone     string          `json:"time_zone" yaml:"timezone"`
	WorkingHours []WorkingWindow `json:"working_hours" yaml:"working_hours"`
	Holidays     []string        `json:"holidays,omitempty" yaml:"holidays"`
}

// WorkingWindow is a single daily window, e.g. Monday 09:00-17:00.
// Start and End are HH:MM in the calendar's time zone.
type WorkingWindow struct {
	Weekday string `json:"weekday" yaml:"weekday"`
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
}

// Naive reports whether the calendar carries no usable schedule.
func (c *WorkCalendar) Naive() bool {
	return c == nil || len(c.WorkingHours) == 0
}
