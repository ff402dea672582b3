package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestVerbosityFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, INFO)

	log.Info("visible", "k", 1)
	log.V(DEBUG).Info("hidden")

	out := buf.String()
	if !strings.Contains(out, `"msg"="visible"`) {
		t.Errorf("expected info entry, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry leaked at INFO verbosity: %q", out)
	}
}

func TestTestLoggerIsVerbose(t *testing.T) {
	var buf bytes.Buffer
	log := NewTestLogger(&buf)
	log.V(TRACE).Info("deep", "n", 3)

	if !strings.Contains(buf.String(), `"n"=3`) {
		t.Errorf("expected trace entry, got %q", buf.String())
	}
}
