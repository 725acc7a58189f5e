package sla

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

const dateLayout = "2006-01-02"

// maxWalkDays bounds the deadline walk so a calendar that never yields
// working time cannot loop forever.
const maxWalkDays = 3660

type window struct {
	start time.Duration // offset from midnight
	end   time.Duration
}

type schedule struct {
	loc      *time.Location
	windows  map[time.Weekday][]window
	holidays map[string]struct{}
}

// WorkingDurationBetween returns the working time elapsed between start and
// end under the calendar. With no usable calendar it is simply end - start
// (calendar-naive mode). Holidays contribute zero minutes regardless of the
// weekday schedule. A start after end yields zero, never a negative value.
func WorkingDurationBetween(cal *domain.WorkCalendar, start, end time.Time) time.Duration {
	if !end.After(start) {
		return 0
	}
	sched, err := compile(cal)
	if err != nil || sched == nil {
		return end.Sub(start)
	}

	start = start.In(sched.loc)
	end = end.In(sched.loc)

	var total time.Duration
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, sched.loc)
	for !day.After(end) {
		if !sched.holiday(day) {
			for _, w := range sched.windows[day.Weekday()] {
				winStart := day.Add(w.start)
				winEnd := day.Add(w.end)
				if winStart.Before(start) {
					winStart = start
				}
				if winEnd.After(end) {
					winEnd = end
				}
				if winEnd.After(winStart) {
					total += winEnd.Sub(winStart)
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return total
}

// DeadlineAfter returns the instant at which budget working time has
// elapsed after start. In calendar-naive mode this is exact addition;
// otherwise the budget is consumed window by window so the deadline lands
// inside a working window.
func DeadlineAfter(cal *domain.WorkCalendar, start time.Time, budget time.Duration) time.Time {
	if budget <= 0 {
		return start
	}
	sched, err := compile(cal)
	if err != nil || sched == nil {
		return start.Add(budget)
	}

	start = start.In(sched.loc)
	remaining := budget
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, sched.loc)
	for i := 0; i < maxWalkDays; i++ {
		if !sched.holiday(day) {
			for _, w := range sched.windows[day.Weekday()] {
				winStart := day.Add(w.start)
				winEnd := day.Add(w.end)
				if winStart.Before(start) {
					winStart = start
				}
				if !winEnd.After(winStart) {
					continue
				}
				avail := winEnd.Sub(winStart)
				if remaining <= avail {
					return winStart.Add(remaining)
				}
				remaining -= avail
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return start.Add(budget)
}

// ValidateCalendar rejects calendars with malformed time zones, weekday
// names, window bounds, or holiday dates.
func ValidateCalendar(cal *domain.WorkCalendar) error {
	if cal.Naive() {
		return nil
	}
	_, err := compile(cal)
	return err
}

func compile(cal *domain.WorkCalendar) (*schedule, error) {
	if cal.Naive() {
		return nil, nil
	}
	loc := time.UTC
	if cal.TimeZone != "" {
		var err error
		loc, err = time.LoadLocation(cal.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("calendar %q: %w", cal.Name, err)
		}
	}

	sched := &schedule{
		loc:      loc,
		windows:  make(map[time.Weekday][]window),
		holidays: make(map[string]struct{}, len(cal.Holidays)),
	}
	for _, wh := range cal.WorkingHours {
		weekday, err := parseWeekday(wh.Weekday)
		if err != nil {
			return nil, fmt.Errorf("calendar %q: %w", cal.Name, err)
		}
		startOff, err := parseClock(wh.Start)
		if err != nil {
			return nil, fmt.Errorf("calendar %q: %w", cal.Name, err)
		}
		endOff, err := parseClock(wh.End)
		if err != nil {
			return nil, fmt.Errorf("calendar %q: %w", cal.Name, err)
		}
		if endOff <= startOff {
			return nil, fmt.Errorf("calendar %q: window %s-%s on %s is empty", cal.Name, wh.Start, wh.End, wh.Weekday)
		}
		sched.windows[weekday] = append(sched.windows[weekday], window{start: startOff, end: endOff})
	}
	for weekday := range sched.windows {
		ws := sched.windows[weekday]
		sort.Slice(ws, func(i, j int) bool { return ws[i].start < ws[j].start })
	}
	for _, h := range cal.Holidays {
		if _, err := time.ParseInLocation(dateLayout, h, loc); err != nil {
			return nil, fmt.Errorf("calendar %q: bad holiday date %q", cal.Name, h)
		}
		sched.holidays[h] = struct{}{}
	}
	return sched, nil
}

func (s *schedule) holiday(day time.Time) bool {
	_, ok := s.holidays[day.Format(dateLayout)]
	return ok
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

func parseClock(value string) (time.Duration, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock value %q, want HH:MM", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("bad clock value %q, want HH:MM", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("bad clock value %q, want HH:MM", value)
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}
