package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newJSON(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: FormatJSON}, "seqcat", buf)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(&buf, "debug")
	l.Info("pulled", Fields(FieldElements, 3))

	m := decodeLine(t, &buf)
	if m["message"] != "pulled" {
		t.Errorf("expected message=pulled, got %v", m["message"])
	}
	if m["service"] != "seqcat" {
		t.Errorf("expected service=seqcat, got %v", m["service"])
	}
	if m[FieldElements] != float64(3) {
		t.Errorf("expected elements=3, got %v", m[FieldElements])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(&buf, "info")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected debug to be filtered, got %q", buf.String())
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(&buf, "bogus")
	l.Debug("hidden")
	l.Info("shown")
	if !strings.Contains(buf.String(), "shown") || strings.Contains(buf.String(), "hidden") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWithComponentAndSequence(t *testing.T) {
	var buf bytes.Buffer
	l := newJSON(&buf, "debug").WithComponent("stream").WithSequence("abc")
	l.Debug("released")

	m := decodeLine(t, &buf)
	if m[FieldComponent] != "stream" {
		t.Errorf("expected component=stream, got %v", m[FieldComponent])
	}
	if m[FieldSequenceID] != "abc" {
		t.Errorf("expected sequence_id=abc, got %v", m[FieldSequenceID])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	newJSON(&buf, "debug").WithError(errors.New("boom")).Warn("failed")
	m := decodeLine(t, &buf)
	if m["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", m["error"])
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "seqcat", &buf)
	l.Info("hello")
	out := buf.String()
	if !strings.Contains(out, "[SEQ][INF]") || !strings.Contains(out, "hello") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(newJSON(&buf, "debug"))
	Get("event").Debug("aborted")
	m := decodeLine(t, &buf)
	if m[FieldComponent] != "event" {
		t.Errorf("expected component=event, got %v", m[FieldComponent])
	}
}

func TestInit(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	l := Init(Config{ServiceName: "seqcat", Format: FormatJSON})
	if GetGlobalLogger() != l {
		t.Fatal("Init did not install the global logger")
	}
	if l.service != "seqcat" {
		t.Errorf("service = %q, want seqcat", l.service)
	}
}

func TestRegisterAndGet(t *testing.T) {
	defer Reset()
	l := Nop()
	Register("custom", l)
	if Get("custom") != l {
		t.Error("expected registered logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.Level != "info" || c.Format != "console" || c.Output != "stderr" || !c.Timestamp {
		t.Errorf("unexpected defaults %+v", c)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json"}, false},
		{"pretty", Config{Level: "info", Format: FormatPretty}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("unexpected fields %v", f)
	}
	ef := ErrorFields("release", errors.New("x"))
	if ef[FieldOperation] != "release" || ef[FieldError] != "x" {
		t.Errorf("unexpected error fields %v", ef)
	}
	df := DurationFields("pull", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("unexpected duration fields %v", df)
	}
}
