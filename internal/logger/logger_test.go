package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewTo_Prefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewTo(&buf, "terrain")
	l.Printf("WARN: %s", "stale cache")

	out := buf.String()
	if !strings.HasPrefix(out, "[terrain] ") {
		t.Errorf("missing component prefix: %q", out)
	}
	if !strings.Contains(out, "WARN: stale cache") {
		t.Errorf("missing message: %q", out)
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := New("world")
	if OrDiscard(l) != l {
		t.Error("OrDiscard should keep a non-nil logger")
	}
}
