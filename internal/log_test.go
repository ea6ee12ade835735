package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"ERROR", LogLevelError},
		{"warn", LogLevelWarn},
		{" Debug ", LogLevelDebug},
		{"TRACE", LogLevelTrace},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(LogLevelWarn, &buf).WithComponent("ResultsReader")

	logger.Info("hidden %d", 1)
	logger.Debug("hidden too")
	logger.Warn("shown %s", "warning")
	logger.Error("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected info/debug lines to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] [ResultsReader] shown warning") {
		t.Errorf("missing warn line with component prefix, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] [ResultsReader] shown error") {
		t.Errorf("missing error line, got %q", out)
	}
}
