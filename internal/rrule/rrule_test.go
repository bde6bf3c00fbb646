package rrule

import (
	"strings"
	"testing"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hray3182/remindcall/internal/models"
	"github.com/hray3182/remindcall/internal/timeparse"
)

func TestString(t *testing.T) {
	start := time.Date(2024, 1, 15, 19, 0, 0, 0, timeparse.IST)

	tests := []struct {
		recurrence models.Recurrence
		contains   []string
	}{
		{models.RecurrenceOnce, []string{"FREQ=DAILY", "COUNT=1"}},
		{models.RecurrenceDaily, []string{"FREQ=DAILY"}},
		{models.RecurrenceTwiceDaily, []string{"FREQ=HOURLY", "INTERVAL=12"}},
		{models.RecurrenceWeekly, []string{"FREQ=WEEKLY"}},
		{models.RecurrenceMonthly, []string{"FREQ=MONTHLY", "BYMONTHDAY=15"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.recurrence), func(t *testing.T) {
			got := String(tt.recurrence, start)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("String(%s) = %q, missing %q", tt.recurrence, got, want)
				}
			}
		})
	}

	if got := String(models.Recurrence("yearly"), start); got != "" {
		t.Errorf("String(yearly) = %q, want empty", got)
	}
}

func TestMonthEndRuleClamps(t *testing.T) {
	start := time.Date(2024, 1, 31, 9, 0, 0, 0, timeparse.IST)

	opt, err := Option(models.RecurrenceMonthly, start)
	if err != nil {
		t.Fatalf("Option() error = %v", err)
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		t.Fatalf("NewRRule() error = %v", err)
	}

	got := rule.After(start, false)
	want := time.Date(2024, 2, 29, 9, 0, 0, 0, timeparse.IST)
	if !got.Equal(want) {
		t.Errorf("next occurrence = %s, want %s", got, want)
	}
}

func TestHumanReadable(t *testing.T) {
	if got := HumanReadable(models.RecurrenceTwiceDaily); got != "twice a day" {
		t.Errorf("HumanReadable(twiceDaily) = %q", got)
	}
	if got := HumanReadable(models.RecurrenceOnce); got != "once" {
		t.Errorf("HumanReadable(once) = %q", got)
	}
}
