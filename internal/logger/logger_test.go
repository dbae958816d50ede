package logger

import (
	"bytes"
	"strings"
	"testing"
)

// resetLogger restores defaults so tests do not leak level changes.
func resetLogger() {
	Init(Options{})
}

func TestInit_DefaultLevel_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("shelf loaded")
	if !strings.Contains(buf.String(), "shelf loaded") {
		t.Error("Info message should be logged at default level")
	}

	buf.Reset()

	Debug("probe detail")
	if strings.Contains(buf.String(), "probe detail") {
		t.Error("Debug message should not be logged at default level")
	}
}

func TestInit_DebugLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	Debug("probe detail")
	if !strings.Contains(buf.String(), "probe detail") {
		t.Error("Debug message should be logged when Debug=true")
	}
}

func TestInit_QuietLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Quiet: true, Output: buf})
	defer resetLogger()

	Info("page fetched")
	if strings.Contains(buf.String(), "page fetched") {
		t.Error("Info message should not be logged when Quiet=true")
	}

	Warn("page skipped")
	if strings.Contains(buf.String(), "page skipped") {
		t.Error("Warn message should not be logged when Quiet=true")
	}

	Error("harvest failed")
	if !strings.Contains(buf.String(), "harvest failed") {
		t.Error("Error message should be logged when Quiet=true")
	}
}

func TestInit_NamedLevel(t *testing.T) {
	tests := []struct {
		level     string
		logsDebug bool
		logsInfo  bool
		logsWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"warn", false, false, true},
		{"error", false, false, false},
		{"", false, true, true},
		{"bogus", false, true, true},
	}
	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			Init(Options{Level: tt.level, Output: buf})
			defer resetLogger()

			Debug("d-mark")
			Info("i-mark")
			Warn("w-mark")

			out := buf.String()
			if got := strings.Contains(out, "d-mark"); got != tt.logsDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.logsDebug)
			}
			if got := strings.Contains(out, "i-mark"); got != tt.logsInfo {
				t.Errorf("info logged = %v, want %v", got, tt.logsInfo)
			}
			if got := strings.Contains(out, "w-mark"); got != tt.logsWarn {
				t.Errorf("warn logged = %v, want %v", got, tt.logsWarn)
			}
		})
	}
}

func TestInit_QuietOverridesDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Quiet: true, Output: buf})
	defer resetLogger()

	Debug("probe detail")
	Info("page fetched")
	Error("harvest failed")

	out := buf.String()
	if strings.Contains(out, "probe detail") || strings.Contains(out, "page fetched") {
		t.Error("only errors should be logged when Quiet=true")
	}
	if !strings.Contains(out, "harvest failed") {
		t.Error("Error should be logged when Quiet=true")
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("export complete")

	out := buf.String()
	if !strings.Contains(out, "{") || !strings.Contains(out, "}") {
		t.Error("JSON format should produce JSON output")
	}
	if !strings.Contains(out, "export complete") {
		t.Error("JSON output should contain the message")
	}
	if !strings.Contains(out, "level") {
		t.Error("JSON output should contain level field")
	}
}

func TestInit_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("export complete")

	out := buf.String()
	if !strings.Contains(out, "export complete") {
		t.Error("text output should contain the message")
	}
	if !strings.Contains(strings.ToUpper(out), "INFO") {
		t.Error("text output should contain level INFO")
	}
}

func TestInfo_WithStructuredArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("page fetched", "page", 3, "items", 25)

	out := buf.String()
	for _, want := range []string{"page fetched", "page", "3", "items", "25"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %q", want, out)
		}
	}
}

func TestWith_ReturnsLoggerWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	l := With("component", "harvest")
	if l == nil {
		t.Fatal("With() returned nil")
	}

	l.Info("started")

	out := buf.String()
	if !strings.Contains(out, "started") {
		t.Error("expected message in output")
	}
	if !strings.Contains(out, "component") || !strings.Contains(out, "harvest") {
		t.Error("expected attributes in output")
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	custom := With("source", "custom")
	Init(Options{Logger: custom})
	defer resetLogger()

	Info("routed")

	out := buf.String()
	if !strings.Contains(out, "routed") || !strings.Contains(out, "custom") {
		t.Error("custom logger should receive messages with its attributes")
	}
}
