package dashboard

import (
	"slices"
	"time"

	"github.com/marcogenualdo/classboard/internal/classroom"
)

// IsIncomplete decides whether a submission still needs the student's
// attention. The checks run in order:
//
//  1. late submissions are always incomplete
//  2. a submission without a state is incomplete
//  3. TURNED_IN is complete
//  4. RETURNED is incomplete only while ungraded
//  5. any other state is incomplete
func IsIncomplete(s classroom.Submission) bool {
	switch {
	case s.Late:
		return true
	case s.State == "":
		return true
	case s.State == classroom.StateTurnedIn:
		return false
	case s.State == classroom.StateReturned:
		return !s.Graded
	default:
		return true
	}
}

// DueInstant combines a due date and time of day into a UTC instant. A
// missing time of day means the end of that day (23:59:59). A missing date,
// or any missing or out of range component, yields nil.
func DueInstant(d *classroom.Date, t *classroom.TimeOfDay) *time.Time {
	if d == nil || d.Year == nil || d.Month == nil || d.Day == nil {
		return nil
	}

	year, month, day := *d.Year, *d.Month, *d.Day
	if year < 1 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}

	hour, minute, second, nanos := 23, 59, 59, 0
	if t != nil {
		if t.Hours == nil || t.Minutes == nil || t.Seconds == nil || t.Nanos == nil {
			return nil
		}
		hour, minute, second, nanos = *t.Hours, *t.Minutes, *t.Seconds, *t.Nanos
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 || nanos < 0 || nanos > 999_999_999 {
			return nil
		}
	}

	due := time.Date(year, time.Month(month), day, hour, minute, second, nanos, time.UTC)
	// time.Date normalizes overflow, e.g. February 30 becomes March 1.
	if due.Day() != day || int(due.Month()) != month {
		return nil
	}
	return &due
}

// SortTodos orders todos by due instant, latest first, with undated todos
// ahead of everything else. The sort is stable.
func SortTodos(todos []Todo) {
	slices.SortStableFunc(todos, func(a, b Todo) int {
		switch {
		case a.Due == nil && b.Due == nil:
			return 0
		case a.Due == nil:
			return -1
		case b.Due == nil:
			return 1
		}
		return b.Due.Compare(*a.Due)
	})
}
