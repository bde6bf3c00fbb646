package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"", zapcore.InfoLevel},
		{"loud", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(tt.level, false)
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.level, err)
			}
			if got := logger.Level(); got != tt.want {
				t.Errorf("New(%q) level = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}
