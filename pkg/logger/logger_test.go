package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitOnceAndGet(t *testing.T) {
	var buf bytes.Buffer

	log := Init(Options{Level: "debug", Output: &buf})
	log.Debug().Msg("first")

	// A second Init is a no-op: the configured output keeps receiving.
	Init(Options{Level: "error"})
	Get().Debug().Msg("second")

	out := buf.String()
	if !strings.Contains(out, "first") {
		t.Errorf("configured output missing first entry: %q", out)
	}
	if !strings.Contains(out, "second") {
		t.Errorf("Get must return the logger Init configured: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"shouting", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
