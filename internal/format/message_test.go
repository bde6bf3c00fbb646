package format

import "testing"

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"é", 1},
		{"提醒", 2},
		{"⏰", 1},
		{"🔔", 2},
		{"🔔 hi", 5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := UTF16Len(tt.in); got != tt.want {
				t.Errorf("UTF16Len(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuilderOffsets(t *testing.T) {
	var b Builder
	res := b.Text("🔔 ").Bold("Reminder").Text(": ").Italic("drink water").Result()

	if res.Text != "🔔 Reminder: drink water" {
		t.Fatalf("Text = %q", res.Text)
	}
	if len(res.Entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(res.Entities))
	}

	bold := res.Entities[0]
	if bold.Type != "bold" || bold.Offset != 3 || bold.Length != 8 {
		t.Errorf("bold entity = %+v, want offset 3 length 8", bold)
	}
	italic := res.Entities[1]
	if italic.Type != "italic" || italic.Offset != 13 || italic.Length != 11 {
		t.Errorf("italic entity = %+v, want offset 13 length 11", italic)
	}
}

func TestBuilderSkipsEmptyEntity(t *testing.T) {
	var b Builder
	res := b.Bold("").Text("x").Result()
	if len(res.Entities) != 0 {
		t.Errorf("got %d entities, want 0", len(res.Entities))
	}
}

func TestMessage(t *testing.T) {
	var b Builder
	msg := b.Code("abc").Result().Message(42)
	if msg.ChatID != 42 || msg.Text != "abc" || len(msg.Entities) != 1 {
		t.Errorf("Message() = %+v", msg)
	}
}
