package rrule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hray3182/remindcall/internal/models"
	"github.com/hray3182/remindcall/internal/timeparse"
)

// Option builds the RFC 5545 rule describing recurrence r for a reminder
// whose first occurrence is dtstart. Wall-clock fields are in IST.
func Option(r models.Recurrence, dtstart time.Time) (rrule.ROption, error) {
	opt := rrule.ROption{
		Interval: 1,
		Dtstart:  dtstart.In(timeparse.IST),
	}

	switch r {
	case models.RecurrenceOnce:
		opt.Freq = rrule.DAILY
		opt.Count = 1
	case models.RecurrenceDaily:
		opt.Freq = rrule.DAILY
	case models.RecurrenceTwiceDaily:
		opt.Freq = rrule.HOURLY
		opt.Interval = 12
	case models.RecurrenceWeekly:
		opt.Freq = rrule.WEEKLY
	case models.RecurrenceMonthly:
		opt.Freq = rrule.MONTHLY
		day := opt.Dtstart.Day()
		if day <= 28 {
			opt.Bymonthday = []int{day}
		} else {
			// Last existing day among 28..day: clamps to the month end.
			for d := 28; d <= day; d++ {
				opt.Bymonthday = append(opt.Bymonthday, d)
			}
			opt.Bysetpos = []int{-1}
		}
	default:
		return rrule.ROption{}, fmt.Errorf("%w: %q", models.ErrInvalidRecurrence, r)
	}

	return opt, nil
}

// String returns the RRULE line (without the DTSTART part) for r.
func String(r models.Recurrence, dtstart time.Time) string {
	opt, err := Option(r, dtstart)
	if err != nil {
		return ""
	}
	return opt.RRuleString()
}

// HumanReadable returns a short English description of r.
func HumanReadable(r models.Recurrence) string {
	switch r {
	case models.RecurrenceOnce:
		return "once"
	case models.RecurrenceDaily:
		return "every day"
	case models.RecurrenceTwiceDaily:
		return "twice a day"
	case models.RecurrenceWeekly:
		return "every week"
	case models.RecurrenceMonthly:
		return "every month"
	}
	return string(r)
}
