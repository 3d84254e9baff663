package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/vipul43/canvas-todoist-sync/internal/config"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zapcore.Level
	}{
		{"debug", "debug", zapcore.DebugLevel},
		{"upper case", "WARN", zapcore.WarnLevel},
		{"unknown falls back to info", "chatty", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(config.LogConfig{Level: tt.level, Encoding: "json"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !l.Core().Enabled(tt.want) {
				t.Errorf("expected level %s to be enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && l.Core().Enabled(tt.want-1) {
				t.Errorf("expected level %s to be disabled", tt.want-1)
			}
		})
	}
}
