package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewAttachesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})

	l.Info("server starting", "port", "8081")

	line := buf.String()
	if !strings.Contains(line, FieldComponent+"="+ComponentApp) {
		t.Errorf("expected component attribute in %q", line)
	}
	if !strings.Contains(line, "port=8081") {
		t.Errorf("expected call-site attributes in %q", line)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})

	l.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info record leaked through warn level: %q", buf.String())
	}

	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}

func TestSetDefaultOmitsComponent(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	var buf bytes.Buffer
	SetDefault(New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf}))

	// The default carries no component, so a subsystem can attach its own
	// without producing duplicate keys.
	ForComponent(ComponentStorage).Info("migrated")

	line := buf.String()
	if !strings.Contains(line, FieldComponent+"="+ComponentStorage) {
		t.Errorf("expected storage component in %q", line)
	}
	if strings.Contains(line, FieldComponent+"="+ComponentApp) {
		t.Errorf("default leaked its component into %q", line)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, c := range cases {
		if got := ParseLevel(c.in); got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
