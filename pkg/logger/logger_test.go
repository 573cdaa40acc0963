package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := GetLevel()
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
	})
	return &buf
}

func TestInfoCF_Format(t *testing.T) {
	buf := capture(t)
	SetLevel(INFO)

	InfoCF("relay", "Dispatching event", map[string]any{"scope": "direct", "ambient": false})

	line := buf.String()
	if !strings.Contains(line, "[INFO] [relay] Dispatching event") {
		t.Errorf("got %q", line)
	}
	// Fields render sorted by key.
	if !strings.Contains(line, "ambient=false scope=direct") {
		t.Errorf("fields: got %q", line)
	}
}

func TestSetLevel_FiltersBelow(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	DebugC("x", "quiet")
	InfoC("x", "quiet")
	WarnC("x", "loud")
	ErrorC("x", "loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("filtered entries leaked: %q", out)
	}
	if got := strings.Count(out, "loud"); got != 2 {
		t.Errorf("expected 2 entries, got %d: %q", got, out)
	}
}

func TestDebugEnabled(t *testing.T) {
	buf := capture(t)
	SetLevel(DEBUG)

	DebugCF("serverquery", "Keepalive failed", map[string]any{"error": "eof"})

	if !strings.Contains(buf.String(), "[DEBUG] [serverquery] Keepalive failed error=eof") {
		t.Errorf("got %q", buf.String())
	}
}
