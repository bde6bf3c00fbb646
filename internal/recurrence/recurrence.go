// Package recurrence computes the next fire time of a recurring reminder.
package recurrence

import (
	"time"

	"github.com/hray3182/remindcall/internal/models"
	"github.com/hray3182/remindcall/internal/timeparse"
)

// Advance returns the fire time following current and whether the reminder
// stays active. once (and any value outside the enumerated set) returns
// current unchanged with stillActive false.
func Advance(current time.Time, r models.Recurrence) (next time.Time, stillActive bool) {
	switch r {
	case models.RecurrenceDaily:
		return current.Add(24 * time.Hour), true
	case models.RecurrenceTwiceDaily:
		return current.Add(12 * time.Hour), true
	case models.RecurrenceWeekly:
		return current.Add(7 * 24 * time.Hour), true
	case models.RecurrenceMonthly:
		return addMonth(current), true
	default:
		return current, false
	}
}

// addMonth moves t to the same IST day-of-month and wall-clock time one
// calendar month later, clamped to the last day of the target month.
func addMonth(t time.Time) time.Time {
	local := t.In(timeparse.IST)
	year, month, day := local.Date()

	target := time.Date(year, month+1, 1, 0, 0, 0, 0, timeparse.IST)
	if last := daysIn(target.Year(), target.Month()); day > last {
		day = last
	}

	return time.Date(target.Year(), target.Month(), day,
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(),
		timeparse.IST).In(t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Preview returns up to n fire times starting with start, following the same
// arithmetic the dispatcher uses.
func Preview(start time.Time, r models.Recurrence, n int) []time.Time {
	if n <= 0 {
		return nil
	}

	out := make([]time.Time, 0, n)
	current := start
	for len(out) < n {
		out = append(out, current)
		next, active := Advance(current, r)
		if !active {
			break
		}
		current = next
	}
	return out
}
