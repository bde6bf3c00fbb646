package delivery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hray3182/remindcall/internal/models"
	"go.uber.org/zap"
)

func TestNoticeFor(t *testing.T) {
	r := &models.Reminder{
		ID:                 "abc",
		SubjectDescription: "take medicine",
		RawTimeExpression:  "after dinner",
		Recurrence:         models.RecurrenceDaily,
		RecipientHandle:    "42",
		FireCount:          2,
	}
	n := NoticeFor(r)
	if n.Subject != "take medicine" || n.Recipient != "42" || n.Recurrence != models.RecurrenceDaily {
		t.Errorf("NoticeFor() = %+v", n)
	}
	if got := n.Key(); got != "abc:3" {
		t.Errorf("Key() = %q, want abc:3", got)
	}
}

func TestTemplateComposer(t *testing.T) {
	tests := []struct {
		name string
		n    Notice
		want string
	}{
		{
			name: "once with time",
			n:    Notice{Subject: "call mom", TimeExpression: "6 pm", Recurrence: models.RecurrenceOnce},
			want: "Time to call mom (scheduled for 6 pm).",
		},
		{
			name: "daily with time",
			n:    Notice{Subject: "take medicine", TimeExpression: "after dinner", Recurrence: models.RecurrenceDaily},
			want: "Time to take medicine (scheduled for after dinner, every day).",
		},
		{
			name: "weekly without time",
			n:    Notice{Subject: "water plants", Recurrence: models.RecurrenceWeekly},
			want: "Time to water plants (every week).",
		},
		{
			name: "bare",
			n:    Notice{Subject: "  stretch "},
			want: "Time to stretch.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TemplateComposer{}.Compose(context.Background(), tt.n)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compose() = %q, want %q", got, tt.want)
			}
		})
	}
}

type fakeGenerator struct {
	text    string
	err     error
	userMsg string
}

func (f *fakeGenerator) GenerateResponse(_ context.Context, _, userMsg string) (string, error) {
	f.userMsg = userMsg
	return f.text, f.err
}

func TestAIComposer(t *testing.T) {
	n := Notice{ReminderID: "r1", Subject: "take medicine", TimeExpression: "9 am", Recurrence: models.RecurrenceDaily}
	fallback, _ := TemplateComposer{}.Compose(context.Background(), n)

	tests := []struct {
		name string
		gen  *fakeGenerator
		want string
	}{
		{"model text", &fakeGenerator{text: "  Good morning! Please take your medicine.\n"}, "Good morning! Please take your medicine."},
		{"model error", &fakeGenerator{err: errors.New("rate limited")}, fallback},
		{"empty reply", &fakeGenerator{text: "   "}, fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewAIComposer(tt.gen, zap.NewNop().Sugar())
			got, err := c.Compose(context.Background(), n)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Compose() = %q, want %q", got, tt.want)
			}
			if !strings.Contains(tt.gen.userMsg, "take medicine") || !strings.Contains(tt.gen.userMsg, "every day") {
				t.Errorf("prompt %q missing notice details", tt.gen.userMsg)
			}
		})
	}
}

func TestLogDeliverer(t *testing.T) {
	l := NewLog(TemplateComposer{}, zap.NewNop().Sugar())
	if err := l.Deliver(context.Background(), Notice{ReminderID: "r1", Subject: "x"}); err != nil {
		t.Errorf("Deliver() error = %v", err)
	}
}

func TestFunc(t *testing.T) {
	var got Notice
	var d Deliverer = Func(func(_ context.Context, n Notice) error {
		got = n
		return nil
	})
	if err := d.Deliver(context.Background(), Notice{ReminderID: "r9"}); err != nil {
		t.Fatal(err)
	}
	if got.ReminderID != "r9" {
		t.Errorf("Func received %+v", got)
	}
}
