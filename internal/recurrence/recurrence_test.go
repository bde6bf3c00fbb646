package recurrence

import (
	"testing"
	"time"

	"github.com/hray3182/remindcall/internal/models"
	"github.com/hray3182/remindcall/internal/timeparse"
)

func TestAdvanceAdditive(t *testing.T) {
	base := time.Date(2024, 3, 9, 13, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		recurrence models.Recurrence
		wantDelta  time.Duration
		wantActive bool
	}{
		{"once", models.RecurrenceOnce, 0, false},
		{"daily", models.RecurrenceDaily, 24 * time.Hour, true},
		{"twice daily", models.RecurrenceTwiceDaily, 12 * time.Hour, true},
		{"weekly", models.RecurrenceWeekly, 168 * time.Hour, true},
		{"unknown retires", models.Recurrence("hourly"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, active := Advance(base, tt.recurrence)
			if active != tt.wantActive {
				t.Errorf("Advance() stillActive = %v, want %v", active, tt.wantActive)
			}
			if got := next.Sub(base); got != tt.wantDelta {
				t.Errorf("Advance() delta = %v, want %v", got, tt.wantDelta)
			}
		})
	}
}

func TestAdvanceMonthly(t *testing.T) {
	ist := timeparse.IST

	tests := []struct {
		name    string
		current time.Time
		want    time.Time
	}{
		{
			name:    "mid month",
			current: time.Date(2024, 5, 15, 9, 0, 0, 0, ist),
			want:    time.Date(2024, 6, 15, 9, 0, 0, 0, ist),
		},
		{
			name:    "jan 31 clamps to feb 29 in leap year",
			current: time.Date(2024, 1, 31, 19, 0, 0, 0, ist),
			want:    time.Date(2024, 2, 29, 19, 0, 0, 0, ist),
		},
		{
			name:    "jan 31 clamps to feb 28",
			current: time.Date(2023, 1, 31, 19, 0, 0, 0, ist),
			want:    time.Date(2023, 2, 28, 19, 0, 0, 0, ist),
		},
		{
			name:    "may 31 clamps to june 30",
			current: time.Date(2024, 5, 31, 7, 45, 0, 0, ist),
			want:    time.Date(2024, 6, 30, 7, 45, 0, 0, ist),
		},
		{
			name:    "december rolls the year",
			current: time.Date(2024, 12, 31, 21, 0, 0, 0, ist),
			want:    time.Date(2025, 1, 31, 21, 0, 0, 0, ist),
		},
		{
			name:    "early IST morning is the previous UTC day",
			current: time.Date(2024, 1, 31, 2, 0, 0, 0, ist), // Jan 30 20:30 UTC
			want:    time.Date(2024, 2, 29, 2, 0, 0, 0, ist),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, active := Advance(tt.current.UTC(), models.RecurrenceMonthly)
			if !active {
				t.Fatal("Advance(monthly) stillActive = false")
			}
			if !next.Equal(tt.want) {
				t.Errorf("Advance(monthly) = %s, want %s", next.In(ist), tt.want)
			}
			if next.Location() != time.UTC {
				t.Errorf("Advance(monthly) location = %v, want UTC", next.Location())
			}
		})
	}
}

func TestAdvanceOnceKeepsInstant(t *testing.T) {
	base := time.Date(2024, 1, 1, 13, 30, 0, 0, time.UTC)
	next, active := Advance(base, models.RecurrenceOnce)
	if active || !next.Equal(base) {
		t.Errorf("Advance(once) = (%s, %v), want (%s, false)", next, active, base)
	}
}

func TestPreview(t *testing.T) {
	start := time.Date(2024, 1, 1, 13, 30, 0, 0, time.UTC)

	got := Preview(start, models.RecurrenceDaily, 3)
	if len(got) != 3 {
		t.Fatalf("Preview(daily, 3) returned %d items", len(got))
	}
	for i, ts := range got {
		want := start.Add(time.Duration(i) * 24 * time.Hour)
		if !ts.Equal(want) {
			t.Errorf("Preview[%d] = %s, want %s", i, ts, want)
		}
	}

	if once := Preview(start, models.RecurrenceOnce, 5); len(once) != 1 {
		t.Errorf("Preview(once, 5) returned %d items, want 1", len(once))
	}
	if none := Preview(start, models.RecurrenceDaily, 0); none != nil {
		t.Errorf("Preview(daily, 0) = %v, want nil", none)
	}
}
