package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logger.Debug("hidden")
	logger.Info("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be suppressed at info level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("info message missing from output: %q", out)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := New(slog.NewTextHandler(&buf, nil))

	logger.With("tool", "gh").Info("installing")

	if !strings.Contains(buf.String(), "tool=gh") {
		t.Errorf("With attribute missing from output: %q", buf.String())
	}
}

func TestDefaultIsNoopUntilSet(t *testing.T) {
	// Must not panic and must discard output.
	Default().Info("goes nowhere")

	var buf bytes.Buffer
	SetDefault(New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetDefault(NewNoop()) })

	Default().Info("captured")
	if !strings.Contains(buf.String(), "captured") {
		t.Error("SetDefault logger not used by Default()")
	}
}
