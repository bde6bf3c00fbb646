package models

import (
	"fmt"
	"strings"
	"time"
)

// Recurrence controls how a reminder's next fire time advances after a dispatch.
type Recurrence string

const (
	RecurrenceOnce       Recurrence = "once"
	RecurrenceDaily      Recurrence = "daily"
	RecurrenceTwiceDaily Recurrence = "twiceDaily"
	RecurrenceWeekly     Recurrence = "weekly"
	RecurrenceMonthly    Recurrence = "monthly"
)

// Recurrences lists every valid recurrence value.
var Recurrences = []Recurrence{
	RecurrenceOnce,
	RecurrenceDaily,
	RecurrenceTwiceDaily,
	RecurrenceWeekly,
	RecurrenceMonthly,
}

// Valid reports whether r is one of the enumerated recurrences.
func (r Recurrence) Valid() bool {
	for _, v := range Recurrences {
		if r == v {
			return true
		}
	}
	return false
}

// IsRecurring reports whether r fires more than once.
func (r Recurrence) IsRecurring() bool {
	return r.Valid() && r != RecurrenceOnce
}

// ParseRecurrence accepts the canonical names plus a few common spellings
// ("twice_daily", "twice-daily", "once-off"). Empty input means once.
func ParseRecurrence(s string) (Recurrence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "once", "one-time", "onetime", "once-off":
		return RecurrenceOnce, nil
	case "daily", "every day", "everyday":
		return RecurrenceDaily, nil
	case "twicedaily", "twice_daily", "twice-daily", "twice a day":
		return RecurrenceTwiceDaily, nil
	case "weekly", "every week":
		return RecurrenceWeekly, nil
	case "monthly", "every month":
		return RecurrenceMonthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
}

// Reminder is the sole persisted entity of the engine.
type Reminder struct {
	ID                 string     `json:"id"`
	SubjectDescription string     `json:"subject"`
	RawTimeExpression  string     `json:"time_expression"`
	Recurrence         Recurrence `json:"recurrence"`
	NextFireAt         time.Time  `json:"next_fire_at"`
	CreatedAt          time.Time  `json:"created_at"`
	LastFiredAt        *time.Time `json:"last_fired_at,omitempty"`
	FireCount          int        `json:"fire_count"`
	Active             bool       `json:"active"`
	RecipientHandle    string     `json:"recipient"`
	OwnerRef           *string    `json:"owner,omitempty"`
}

// IsRecurring returns true if this reminder fires more than once
func (r *Reminder) IsRecurring() bool {
	return r.Recurrence.IsRecurring()
}

// IsDue reports whether an active reminder should fire at now.
func (r *Reminder) IsDue(now time.Time) bool {
	ms := r.NextFireAt.UnixMilli()
	return r.Active && ms > 0 && ms <= now.UnixMilli()
}
